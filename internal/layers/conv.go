package layers

import (
	"fmt"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
	"go.dedis.ch/onet/v3/log"
)

// Convolutional builds a square kernelDim×kernelDim convolution followed by
// a bias add and ReLU, in scope "{network}_conv{counter}".
//
// Parameters:
//   - input: [batch, inputDepth, height, width]
//   - kernel: [outputDepth, inputDepth, kernelDim, kernelDim]
//   - bias: [outputDepth]
//
// A zero strides value means UnitStrides. The output has exactly outputDepth
// channels; matching it to the next layer's input depth is up to the caller.
func (b *Builder[B]) Convolutional(
	counter int, network string,
	input *graph.Tensor[B],
	inputDepth, kernelDim, outputDepth int,
	strides Strides, padding Padding,
) (out *graph.Tensor[B], err error) {
	if err := checkPositive("conv depths and kernel", inputDepth, kernelDim, outputDepth); err != nil {
		return nil, err
	}
	stride, err := strides.Spatial()
	if err != nil {
		return nil, err
	}
	if err := checkImage(input, inputDepth); err != nil {
		return nil, fmt.Errorf("conv%d: %w", counter, err)
	}
	s := input.Shape()
	h, w := s[2], s[3]
	if padding == Valid && (h < kernelDim || w < kernelDim) {
		return nil, fmt.Errorf("%w: %dx%d input smaller than %dx%d kernel",
			ErrInvalidDimension, h, w, kernelDim, kernelDim)
	}

	scope, err := b.claim(graph.Conv, network, counter)
	if err != nil {
		return nil, err
	}
	defer b.releaseOnError(scope, &err)
	weights, err := b.CreateWeights(scope, tensor.Shape{outputDepth, inputDepth, kernelDim, kernelDim})
	if err != nil {
		return nil, err
	}
	biases, err := b.CreateBiases(scope, tensor.Shape{outputDepth})
	if err != nil {
		return nil, err
	}

	x, symmetric := input, 0
	if padding == Same {
		var rest edges
		symmetric, rest = sameEdges(h, w, kernelDim, stride).split()
		x = pad(input, rest, 0)
	}

	backend := b.graph.Backend()
	out = b.wrap(backend.Conv2D(x.Raw(), weights.Tensor().Raw(), stride, symmetric))
	out = out.Add(biases.Tensor().Reshape(1, outputDepth, 1, 1))
	out = b.relu(out)

	log.Lvl3(scope.Name(), "conv", kernelDim, "x", kernelDim, "stride", stride, padding, s, "->", out.Shape())
	return out, nil
}

// checkImage validates an NCHW input with the declared channel depth.
func checkImage[B Backend](input *graph.Tensor[B], depth int) error {
	if input == nil {
		return fmt.Errorf("%w: nil input", ErrShapeMismatch)
	}
	s := input.Shape()
	if len(s) != 4 {
		return fmt.Errorf("%w: expected 4D input [N,C,H,W], got %v", ErrShapeMismatch, s)
	}
	if depth > 0 && s[1] != depth {
		return fmt.Errorf("%w: input has %d channels, declared depth is %d", ErrShapeMismatch, s[1], depth)
	}
	return nil
}
