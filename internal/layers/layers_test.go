package layers

import (
	"math"
	"testing"

	"github.com/born-ml/born/autodiff"
	"github.com/born-ml/born/backend/cpu"
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend = *autodiff.Backend[*cpu.Backend]

func newTestBuilder(t *testing.T, opts ...Option) *Builder[testBackend] {
	t.Helper()
	g := graph.New(autodiff.New(cpu.New()), graph.WithSeed(7))
	b, err := NewBuilder(g, Hyperparameters{BatchSize: 2, LearningRate: 0.01, NumLabels: 5}, opts...)
	require.NoError(t, err)
	return b
}

func zeros(b *Builder[testBackend], shape ...int) *graph.Tensor[testBackend] {
	return tensor.Zeros[float32](tensor.Shape(shape), b.Graph().Backend())
}

func assertAll(t *testing.T, data []float32, want float32) {
	t.Helper()
	for i, v := range data {
		if !assert.InDelta(t, want, v, 1e-6, "element %d", i) {
			return
		}
	}
}

func TestNewBuilder(t *testing.T) {
	b := newTestBuilder(t)
	assert.Equal(t, 2, b.BatchSize())
	assert.Equal(t, 0.01, b.LearningRate())
	assert.Equal(t, 5, b.NumLabels())
	assert.Equal(t, DefaultInit(), b.Init())

	g := graph.New(autodiff.New(cpu.New()))
	_, err := NewBuilder(g, Hyperparameters{BatchSize: 0, LearningRate: 0.1, NumLabels: 1})
	assert.ErrorIs(t, err, ErrInvalidHyperparameters)
	_, err = NewBuilder(g, Hyperparameters{BatchSize: 1, LearningRate: math.NaN(), NumLabels: 1})
	assert.ErrorIs(t, err, ErrInvalidHyperparameters)
	_, err = NewBuilder(g, Hyperparameters{BatchSize: 1, LearningRate: 0.1, NumLabels: -3})
	assert.ErrorIs(t, err, ErrInvalidHyperparameters)
	_, err = NewBuilder(g, DefaultHyperparameters(), WithInit(Init{Scheme: TruncatedNormal, Stddev: -1}))
	assert.ErrorIs(t, err, ErrInvalidInit)
	_, err = NewBuilder[testBackend](nil, DefaultHyperparameters())
	assert.Error(t, err)
}

func TestConvolutional_Shapes(t *testing.T) {
	tests := []struct {
		name       string
		in         []int
		inDepth    int
		kernel     int
		outDepth   int
		padding    Padding
		wantHeight int
	}{
		{"same 5x5", []int{2, 1, 16, 16}, 1, 5, 8, Same, 16},
		{"same even kernel", []int{1, 3, 8, 8}, 3, 8, 4, Same, 8},
		{"same odd image", []int{1, 2, 7, 7}, 2, 4, 2, Same, 7},
		{"valid", []int{1, 1, 10, 10}, 1, 3, 2, Valid, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t)
			out, err := b.Convolutional(1, "net", zeros(b, tt.in...), tt.inDepth, tt.kernel, tt.outDepth, Strides{}, tt.padding)
			require.NoError(t, err)
			want := tensor.Shape{tt.in[0], tt.outDepth, tt.wantHeight, tt.wantHeight}
			assert.True(t, out.Shape().Equal(want), "got %v, want %v", out.Shape(), want)
		})
	}
}

func TestConvolutional_Parameters(t *testing.T) {
	b := newTestBuilder(t)
	out, err := b.Convolutional(3, "net", zeros(b, 1, 2, 6, 6), 2, 5, 4, UnitStrides, Same)
	require.NoError(t, err)

	// Zero input: convolution is zero, so every output is relu(bias).
	assertAll(t, out.Data(), 0.1)

	w, ok := b.Graph().Lookup("net_conv3/weights")
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{4, 2, 5, 5}, w.Tensor().Shape())
	bias, ok := b.Graph().Lookup("net_conv3/biases")
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{4}, bias.Tensor().Shape())
	assert.Equal(t, 4*2*5*5+4, b.Graph().NumParameters())
}

func TestConvolutional_Errors(t *testing.T) {
	b := newTestBuilder(t)
	in := zeros(b, 1, 1, 8, 8)

	_, err := b.Convolutional(1, "net", in, 1, 0, 4, Strides{}, Same)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	_, err = b.Convolutional(1, "net", in, 3, 3, 4, Strides{}, Same)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = b.Convolutional(1, "net", zeros(b, 8, 8), 1, 3, 4, Strides{}, Same)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = b.Convolutional(1, "net", in, 1, 3, 4, Strides{2, 1, 1, 1}, Same)
	assert.ErrorIs(t, err, ErrInvalidStrides)

	_, err = b.Convolutional(1, "net", in, 1, 9, 4, Strides{}, Valid)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	// Failed calls claim nothing.
	assert.Empty(t, b.Graph().Scopes())

	_, err = b.Convolutional(1, "net", in, 1, 3, 4, Strides{}, Same)
	require.NoError(t, err)
	_, err = b.Convolutional(1, "net", in, 1, 3, 4, Strides{}, Same)
	assert.ErrorIs(t, err, graph.ErrScopeExists)
}

func TestMaxPooling_KnownValues(t *testing.T) {
	b := newTestBuilder(t)
	data := make([]float32, 16)
	for i := range data {
		data[i] = float32(i + 1)
	}
	in, err := tensor.FromSlice(data, tensor.Shape{1, 1, 4, 4}, b.Graph().Backend())
	require.NoError(t, err)

	out, err := b.MaxPooling(1, "net", in, 2, 2, Same)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{6, 8, 14, 16}, out.Data())
}

func TestMaxPooling_SamePadsWithLowest(t *testing.T) {
	b := newTestBuilder(t)
	data := []float32{
		-1, -2, -3,
		-4, -5, -6,
		-7, -8, -9,
	}
	in, err := tensor.FromSlice(data, tensor.Shape{1, 1, 3, 3}, b.Graph().Backend())
	require.NoError(t, err)

	// ceil(3/2) = 2, padding only after: the border never beats a negative value.
	out, err := b.MaxPooling(1, "net", in, 2, 0, Same)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 2, 2}, out.Shape())
	assert.Equal(t, []float32{-1, -3, -7, -9}, out.Data())
}

func TestMaxPooling_KeepsDepth(t *testing.T) {
	b := newTestBuilder(t)
	out, err := b.MaxPooling(2, "net", zeros(b, 3, 7, 10, 10), 2, 2, Same)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 7, 5, 5}, out.Shape())
	assert.Equal(t, []string{"net_pool2"}, b.Graph().Scopes())
	assert.Zero(t, b.Graph().NumParameters())

	_, err = b.MaxPooling(2, "net", zeros(b, 3, 7, 10, 10), 2, 2, Same)
	assert.ErrorIs(t, err, graph.ErrScopeExists)

	_, err = b.MaxPooling(3, "net", zeros(b, 7, 10, 10), 2, 2, Same)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFullyConnected(t *testing.T) {
	b := newTestBuilder(t)
	out, err := b.FullyConnected(1, "net", zeros(b, 2, 4, 2, 2), 16, 10, 1.0)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 10}, out.Shape())
	assertAll(t, out.Data(), 0.1)

	w, ok := b.Graph().Lookup("net_fc1/weights")
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{16, 10}, w.Tensor().Shape())
}

func TestFullyConnected_Errors(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.FullyConnected(1, "net", zeros(b, 2, 15), 16, 10, 1.0)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	for _, keep := range []float64{0, -0.5, 1.5, math.NaN()} {
		_, err = b.FullyConnected(1, "net", zeros(b, 2, 16), 16, 10, keep)
		assert.ErrorIs(t, err, ErrInvalidKeepProb, "keep %v", keep)
	}

	_, err = b.FullyConnected(1, "net", zeros(b, 2, 16), 0, 10, 1.0)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	// 16 images of 4x3x3 divide into 9 rows of 64, which is not a batch of 16.
	_, err = b.FullyConnected(1, "net", zeros(b, 16, 4, 3, 3), 64, 10, 1.0)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	assert.Empty(t, b.Graph().Scopes())
}

func TestFullyConnected_DropoutInferenceIsIdentity(t *testing.T) {
	b := newTestBuilder(t)
	out, err := b.FullyConnected(1, "net", zeros(b, 4, 8), 8, 32, 0.5)
	require.NoError(t, err)
	assertAll(t, out.Data(), 0.1)
}

func TestFullyConnected_DropoutTraining(t *testing.T) {
	b := newTestBuilder(t)
	b.Graph().SetTraining(true)

	out, err := b.FullyConnected(1, "net", zeros(b, 8, 8), 8, 64, 0.5)
	require.NoError(t, err)

	var kept int
	for _, v := range out.Data() {
		if v == 0 {
			continue
		}
		kept++
		assert.InDelta(t, 0.2, v, 1e-6)
	}
	total := len(out.Data())
	assert.Greater(t, kept, total/4)
	assert.Less(t, kept, 3*total/4)
}

func TestOutputLayer(t *testing.T) {
	b := newTestBuilder(t)
	out, err := b.OutputLayer("net", zeros(b, 3, 12), 12, 5)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{3, 5}, out.Logits.Shape())
	assert.Equal(t, tensor.Shape{3, 5}, out.YPred.Shape())
	assertAll(t, out.Logits.Data(), 0.1)

	want := float32(1 / (1 + math.Exp(-0.1)))
	assertAll(t, out.YPred.Data(), want)

	// Labels are independent: a row is not a distribution.
	var rowSum float64
	for _, p := range out.YPred.Data()[:5] {
		rowSum += float64(p)
	}
	assert.Greater(t, math.Abs(rowSum-1), 1e-3, "y_pred row must not be normalised")

	_, ok := b.Graph().Lookup("net_output_layer/weights")
	assert.True(t, ok)

	_, err = b.OutputLayer("net", zeros(b, 3, 12), 12, 5)
	assert.ErrorIs(t, err, graph.ErrScopeExists)
}

func TestOutputLayer_Errors(t *testing.T) {
	b := newTestBuilder(t)

	_, err := b.OutputLayer("net", zeros(b, 3, 12), 11, 5)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = b.OutputLayer("net", zeros(b, 3, 2, 6), 12, 5)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = b.OutputLayer("net", zeros(b, 3, 12), 12, 0)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestYPredInUnitInterval(t *testing.T) {
	b := newTestBuilder(t)
	data := []float32{-50, -1, 0, 1, 50, 3}
	in, err := tensor.FromSlice(data, tensor.Shape{2, 3}, b.Graph().Backend())
	require.NoError(t, err)

	out, err := b.OutputLayer("net", in, 3, 4)
	require.NoError(t, err)
	for _, p := range out.YPred.Data() {
		assert.GreaterOrEqual(t, p, float32(0))
		assert.LessOrEqual(t, p, float32(1))
	}
}
