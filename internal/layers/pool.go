package layers

import (
	"fmt"
	"math"

	"github.com/born-ml/convnet/internal/graph"
	"go.dedis.ch/onet/v3/log"
)

// DefaultPoolStride is used when MaxPooling is given a zero stride.
const DefaultPoolStride = 2

// MaxPooling builds a kernelDim×kernelDim max pooling layer in scope
// "{network}_pool{counter}". It has no parameters and keeps the channel depth.
//
// Under SAME padding the borders hold the lowest float32, so they never win
// a window.
func (b *Builder[B]) MaxPooling(
	counter int, network string,
	input *graph.Tensor[B],
	kernelDim, stride int, padding Padding,
) (*graph.Tensor[B], error) {
	if stride == 0 {
		stride = DefaultPoolStride
	}
	if err := checkPositive("pool kernel and stride", kernelDim, stride); err != nil {
		return nil, err
	}
	if err := checkImage(input, 0); err != nil {
		return nil, fmt.Errorf("pool%d: %w", counter, err)
	}
	s := input.Shape()
	h, w := s[2], s[3]
	if padding == Valid && (h < kernelDim || w < kernelDim) {
		return nil, fmt.Errorf("%w: %dx%d input smaller than %dx%d window",
			ErrInvalidDimension, h, w, kernelDim, kernelDim)
	}

	scope, err := b.claim(graph.Pool, network, counter)
	if err != nil {
		return nil, err
	}

	x := input
	if padding == Same {
		x = pad(input, sameEdges(h, w, kernelDim, stride), -math.MaxFloat32)
	}
	out := b.wrap(b.graph.Backend().MaxPool2D(x.Raw(), kernelDim, stride))

	log.Lvl3(scope.Name(), "maxpool", kernelDim, "stride", stride, padding, s, "->", out.Shape())
	return out, nil
}
