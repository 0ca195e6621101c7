package layers

import (
	"fmt"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
	"go.dedis.ch/onet/v3/log"
	"gonum.org/v1/gonum/stat/distuv"
)

// FullyConnected reshapes input to [batch, inputDim] and applies
// relu(x·W + b) with W [inputDim, outputDepth], in scope "{network}_fc{counter}".
//
// keepProb is the dropout keep probability in (0, 1]. Dropout only runs
// while the graph is in training mode; in inference mode the layer output is
// the plain activation whatever keepProb is.
func (b *Builder[B]) FullyConnected(
	counter int, network string,
	input *graph.Tensor[B],
	inputDim, outputDepth int,
	keepProb float64,
) (out *graph.Tensor[B], err error) {
	if err := checkPositive("fc dimensions", inputDim, outputDepth); err != nil {
		return nil, err
	}
	if !(keepProb > 0 && keepProb <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeepProb, keepProb)
	}
	if input == nil {
		return nil, fmt.Errorf("fc%d: %w: nil input", counter, ErrShapeMismatch)
	}
	n := input.Shape().NumElements()
	if n == 0 || n%inputDim != 0 {
		return nil, fmt.Errorf("fc%d: %w: %v cannot be reshaped to [batch, %d]",
			counter, ErrShapeMismatch, input.Shape(), inputDim)
	}
	batch := n / inputDim
	if batch != input.Shape()[0] {
		return nil, fmt.Errorf("fc%d: %w: %v holds %d rows of %d features, not %d",
			counter, ErrShapeMismatch, input.Shape(), batch, inputDim, input.Shape()[0])
	}

	scope, err := b.claim(graph.FC, network, counter)
	if err != nil {
		return nil, err
	}
	defer b.releaseOnError(scope, &err)
	weights, err := b.CreateWeights(scope, tensor.Shape{inputDim, outputDepth})
	if err != nil {
		return nil, err
	}
	biases, err := b.CreateBiases(scope, tensor.Shape{outputDepth})
	if err != nil {
		return nil, err
	}

	x := input
	if !x.Shape().Equal(tensor.Shape{batch, inputDim}) {
		x = x.Reshape(batch, inputDim)
	}
	out = x.MatMul(weights.Tensor()).Add(biases.Tensor().Reshape(1, outputDepth))
	out = b.relu(out)
	out = b.dropout(out, keepProb)

	log.Lvl3(scope.Name(), "dense", inputDim, "->", outputDepth, "keep", keepProb, "->", out.Shape())
	return out, nil
}

// dropout applies inverted dropout: kept activations are scaled by
// 1/keepProb so the expected activation is unchanged.
func (b *Builder[B]) dropout(x *graph.Tensor[B], keepProb float64) *graph.Tensor[B] {
	if keepProb >= 1 || !b.graph.Training() {
		return x
	}
	mask := tensor.Zeros[float32](x.Shape().Clone(), b.graph.Backend())
	keep := distuv.Bernoulli{P: keepProb, Src: b.graph.Source()}
	scale := float32(1 / keepProb)
	data := mask.Data()
	for i := range data {
		if keep.Rand() == 1 {
			data[i] = scale
		}
	}
	return x.Mul(mask)
}
