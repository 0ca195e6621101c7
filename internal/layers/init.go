package layers

import (
	"fmt"
	"math"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
	"gonum.org/v1/gonum/stat/distuv"
)

// Scheme selects how weights are initialised.
type Scheme int

// Initialisation schemes.
const (
	// TruncatedNormal draws from N(0, σ²) and redraws samples beyond 2σ.
	TruncatedNormal Scheme = iota
	// Xavier draws from U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))).
	Xavier
)

// String returns the configuration name of the scheme.
func (s Scheme) String() string {
	switch s {
	case TruncatedNormal:
		return "truncated_normal"
	case Xavier:
		return "xavier"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme parses a scheme name as written in configuration files.
func ParseScheme(s string) (Scheme, error) {
	switch s {
	case "truncated_normal", "":
		return TruncatedNormal, nil
	case "xavier":
		return Xavier, nil
	default:
		return 0, fmt.Errorf("%w: unknown scheme %q", ErrInvalidInit, s)
	}
}

// Init describes parameter initialisation.
type Init struct {
	Scheme Scheme
	Stddev float64 // σ of TruncatedNormal; ignored by Xavier.
	Bias   float32 // Constant every bias starts at.
}

// DefaultInit returns truncated normal weights (σ = 0.1) and biases of 0.1.
func DefaultInit() Init {
	return Init{Scheme: TruncatedNormal, Stddev: 0.1, Bias: 0.1}
}

// Validate checks the scheme and its parameters.
func (in Init) Validate() error {
	switch in.Scheme {
	case TruncatedNormal:
		if in.Stddev <= 0 || math.IsNaN(in.Stddev) || math.IsInf(in.Stddev, 0) {
			return fmt.Errorf("%w: stddev %v", ErrInvalidInit, in.Stddev)
		}
	case Xavier:
	default:
		return fmt.Errorf("%w: unknown scheme %d", ErrInvalidInit, int(in.Scheme))
	}
	if math.IsNaN(float64(in.Bias)) || math.IsInf(float64(in.Bias), 0) {
		return fmt.Errorf("%w: bias %v", ErrInvalidInit, in.Bias)
	}
	return nil
}

// CreateWeights creates a freshly initialised "weights" variable in scope.
//
// Convolution kernels are [out, in, kh, kw]; dense matrices are [in, out].
func (b *Builder[B]) CreateWeights(scope *graph.Scope[B], shape tensor.Shape) (*graph.Parameter[B], error) {
	if err := validShape(shape); err != nil {
		return nil, err
	}

	data := make([]float32, shape.NumElements())
	src := b.graph.Source()
	switch b.init.Scheme {
	case Xavier:
		fanIn, fanOut := fans(shape)
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		dist := distuv.Uniform{Min: -bound, Max: bound, Src: src}
		for i := range data {
			data[i] = float32(dist.Rand())
		}
	default:
		sigma := b.init.Stddev
		dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: src}
		for i := range data {
			v := dist.Rand()
			for math.Abs(v) > 2*sigma {
				v = dist.Rand()
			}
			data[i] = float32(v)
		}
	}

	t, err := tensor.FromSlice(data, shape.Clone(), b.graph.Backend())
	if err != nil {
		return nil, fmt.Errorf("%s weights: %w", scope.Name(), err)
	}
	return scope.NewVariable("weights", t)
}

// CreateBiases creates a "biases" variable in scope filled with Init.Bias.
func (b *Builder[B]) CreateBiases(scope *graph.Scope[B], shape tensor.Shape) (*graph.Parameter[B], error) {
	if err := validShape(shape); err != nil {
		return nil, err
	}
	t := tensor.Full[float32](shape.Clone(), b.init.Bias, b.graph.Backend())
	return scope.NewVariable("biases", t)
}

func validShape(shape tensor.Shape) error {
	if len(shape) == 0 {
		return fmt.Errorf("%w: empty parameter shape", ErrInvalidDimension)
	}
	for _, d := range shape {
		if d <= 0 {
			return fmt.Errorf("%w: parameter shape %v", ErrInvalidDimension, shape)
		}
	}
	return nil
}

// fans returns fan-in and fan-out.
//
//	rank 1:  [n]              -> n, n
//	rank 2:  [in, out]        -> in, out
//	rank 4+: [out, in, k...]  -> in·∏k, out·∏k
func fans(shape tensor.Shape) (fanIn, fanOut int) {
	switch len(shape) {
	case 1:
		return shape[0], shape[0]
	case 2:
		return shape[0], shape[1]
	default:
		receptive := 1
		for _, d := range shape[2:] {
			receptive *= d
		}
		return shape[1] * receptive, shape[0] * receptive
	}
}
