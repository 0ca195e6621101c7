package layers

import (
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
)

// edges is the explicit padding around the spatial axes of an NCHW tensor.
type edges struct {
	top, bottom, left, right int
}

func (e edges) empty() bool {
	return e.top == 0 && e.bottom == 0 && e.left == 0 && e.right == 0
}

// sameEdges returns the SAME padding of an [h, w] input.
func sameEdges(h, w, kernel, stride int) edges {
	top, bottom := SamePadding(h, kernel, stride)
	left, right := SamePadding(w, kernel, stride)
	return edges{top: top, bottom: bottom, left: left, right: right}
}

// split moves the largest symmetric part of e into a single padding value
// that the runtime's convolution applies itself, and returns the rest.
func (e edges) split() (symmetric int, rest edges) {
	symmetric = min(e.top, e.bottom, e.left, e.right)
	return symmetric, edges{
		top:    e.top - symmetric,
		bottom: e.bottom - symmetric,
		left:   e.left - symmetric,
		right:  e.right - symmetric,
	}
}

// pad concatenates constant borders around the spatial axes of x.
// Concatenation is recorded by the autodiff tape, so gradients reach x.
func pad[B Backend](x *graph.Tensor[B], e edges, value float32) *graph.Tensor[B] {
	if e.empty() {
		return x
	}
	backend := x.Backend()
	s := x.Shape()
	n, c, h, w := s[0], s[1], s[2], s[3]

	if e.top > 0 || e.bottom > 0 {
		parts := make([]*graph.Tensor[B], 0, 3)
		if e.top > 0 {
			parts = append(parts, tensor.Full[float32](tensor.Shape{n, c, e.top, w}, value, backend))
		}
		parts = append(parts, x)
		if e.bottom > 0 {
			parts = append(parts, tensor.Full[float32](tensor.Shape{n, c, e.bottom, w}, value, backend))
		}
		x = tensor.Cat(parts, 2)
		h += e.top + e.bottom
	}

	if e.left > 0 || e.right > 0 {
		parts := make([]*graph.Tensor[B], 0, 3)
		if e.left > 0 {
			parts = append(parts, tensor.Full[float32](tensor.Shape{n, c, h, e.left}, value, backend))
		}
		parts = append(parts, x)
		if e.right > 0 {
			parts = append(parts, tensor.Full[float32](tensor.Shape{n, c, h, e.right}, value, backend))
		}
		x = tensor.Cat(parts, 3)
	}
	return x
}
