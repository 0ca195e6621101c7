// Package layers implements the layer builders of the convolutional network.
//
// A Builder holds the network hyperparameters and creates one layer per call:
//   - Convolutional: conv2d + bias + ReLU
//   - MaxPooling: max pooling, no parameters
//   - FullyConnected: reshape + affine + ReLU (+ dropout in training mode)
//   - OutputLayer: affine logits + element-wise sigmoid
//
// Every layer claims a unique scope in the graph, so building the same
// (network, kind, counter) twice fails with graph.ErrScopeExists instead of
// silently sharing or shadowing parameters.
//
// Tensors are NCHW: [batch, channels, height, width].
package layers

import (
	"errors"
	"fmt"
	"math"

	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
)

// Errors returned by layer builders.
var (
	ErrInvalidHyperparameters = errors.New("layers: invalid hyperparameters")
	ErrInvalidDimension       = errors.New("layers: invalid dimension")
	ErrInvalidStrides         = errors.New("layers: invalid strides")
	ErrInvalidKeepProb        = errors.New("layers: invalid keep probability")
	ErrInvalidInit            = errors.New("layers: invalid initialisation")

	// ErrShapeMismatch is graph.ErrShapeMismatch, so callers can match
	// either package's sentinel.
	ErrShapeMismatch = graph.ErrShapeMismatch
)

// Backend is a compute backend that also provides the activations the
// layers need. autodiff.Backend over any Born backend satisfies it.
type Backend interface {
	tensor.Backend
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
	Sigmoid(x *tensor.RawTensor) *tensor.RawTensor
}

// Hyperparameters of a network. Only BatchSize and NumLabels influence graph
// construction; LearningRate is carried for the training code that consumes
// the assembled graph.
type Hyperparameters struct {
	BatchSize    int
	LearningRate float64
	NumLabels    int
}

// DefaultHyperparameters returns batch size 128, 65 labels and a learning
// rate of 1e-3.
func DefaultHyperparameters() Hyperparameters {
	return Hyperparameters{BatchSize: 128, LearningRate: 1e-3, NumLabels: 65}
}

// Validate checks that every hyperparameter is positive.
func (h Hyperparameters) Validate() error {
	if h.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size %d", ErrInvalidHyperparameters, h.BatchSize)
	}
	if h.LearningRate <= 0 || math.IsNaN(h.LearningRate) || math.IsInf(h.LearningRate, 0) {
		return fmt.Errorf("%w: learning rate %v", ErrInvalidHyperparameters, h.LearningRate)
	}
	if h.NumLabels <= 0 {
		return fmt.Errorf("%w: label count %d", ErrInvalidHyperparameters, h.NumLabels)
	}
	return nil
}

// Option configures a Builder.
type Option func(*options)

type options struct {
	init Init
}

// WithInit selects the parameter initialisation. The default is DefaultInit.
func WithInit(in Init) Option {
	return func(o *options) {
		o.init = in
	}
}

// Builder creates layers in a graph.
type Builder[B Backend] struct {
	hp    Hyperparameters
	graph *graph.Graph[B]
	init  Init
}

// NewBuilder creates a layer builder for g.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	g := graph.New(backend, graph.WithSeed(1))
//	b, err := layers.NewBuilder(g, layers.DefaultHyperparameters())
func NewBuilder[B Backend](g *graph.Graph[B], hp Hyperparameters, opts ...Option) (*Builder[B], error) {
	if g == nil {
		return nil, errors.New("layers: nil graph")
	}
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	o := options{init: DefaultInit()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.init.Validate(); err != nil {
		return nil, err
	}
	return &Builder[B]{hp: hp, graph: g, init: o.init}, nil
}

// BatchSize returns the configured batch size.
func (b *Builder[B]) BatchSize() int { return b.hp.BatchSize }

// LearningRate returns the configured learning rate.
func (b *Builder[B]) LearningRate() float64 { return b.hp.LearningRate }

// NumLabels returns the configured number of output labels.
func (b *Builder[B]) NumLabels() int { return b.hp.NumLabels }

// Hyperparameters returns a copy of all hyperparameters.
func (b *Builder[B]) Hyperparameters() Hyperparameters { return b.hp }

// Init returns the parameter initialisation in use.
func (b *Builder[B]) Init() Init { return b.init }

// Graph returns the graph layers are created in.
func (b *Builder[B]) Graph() *graph.Graph[B] { return b.graph }

func (b *Builder[B]) claim(kind graph.Kind, network string, counter int) (*graph.Scope[B], error) {
	return b.graph.Claim(graph.ScopeID{Network: network, Kind: kind, Counter: counter})
}

// releaseOnError gives scope back to the graph when the layer that claimed
// it fails, so a failed layer leaves nothing registered.
func (b *Builder[B]) releaseOnError(scope *graph.Scope[B], err *error) {
	if *err != nil {
		b.graph.Release(scope.ID())
	}
}

func (b *Builder[B]) wrap(raw *tensor.RawTensor) *graph.Tensor[B] {
	return tensor.New[float32, B](raw, b.graph.Backend())
}

func (b *Builder[B]) relu(x *graph.Tensor[B]) *graph.Tensor[B] {
	return b.wrap(b.graph.Backend().ReLU(x.Raw()))
}

func (b *Builder[B]) sigmoid(x *graph.Tensor[B]) *graph.Tensor[B] {
	return b.wrap(b.graph.Backend().Sigmoid(x.Raw()))
}

func checkPositive(what string, values ...int) error {
	for _, v := range values {
		if v <= 0 {
			return fmt.Errorf("%w: %s %v", ErrInvalidDimension, what, values)
		}
	}
	return nil
}
