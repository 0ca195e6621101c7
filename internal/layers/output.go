package layers

import (
	"fmt"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
	"go.dedis.ch/onet/v3/log"
)

// Output is the terminal record of an assembled network.
type Output[B Backend] struct {
	Logits *graph.Tensor[B] // [batch, classes]
	YPred  *graph.Tensor[B] // sigmoid(Logits), independent per class
}

// OutputLayer builds logits = x·W + b with W [inputDim, nOutputClasses] in
// scope "{network}_output_layer", and y_pred = sigmoid(logits).
//
// Labels are not mutually exclusive: every class gets its own probability
// and a row of YPred does not sum to one.
func (b *Builder[B]) OutputLayer(
	network string,
	input *graph.Tensor[B],
	inputDim, nOutputClasses int,
) (out *Output[B], err error) {
	if err := checkPositive("output dimensions", inputDim, nOutputClasses); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, fmt.Errorf("output: %w: nil input", ErrShapeMismatch)
	}
	s := input.Shape()
	if len(s) != 2 || s[1] != inputDim {
		return nil, fmt.Errorf("output: %w: expected [batch, %d], got %v", ErrShapeMismatch, inputDim, s)
	}

	scope, err := b.claim(graph.Output, network, 0)
	if err != nil {
		return nil, err
	}
	defer b.releaseOnError(scope, &err)
	weights, err := b.CreateWeights(scope, tensor.Shape{inputDim, nOutputClasses})
	if err != nil {
		return nil, err
	}
	biases, err := b.CreateBiases(scope, tensor.Shape{nOutputClasses})
	if err != nil {
		return nil, err
	}

	logits := input.MatMul(weights.Tensor()).Add(biases.Tensor().Reshape(1, nOutputClasses))
	out = &Output[B]{
		Logits: logits,
		YPred:  b.sigmoid(logits),
	}

	log.Lvl3(scope.Name(), "logits", s, "->", logits.Shape())
	return out, nil
}
