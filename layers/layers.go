// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package layers builds convolution, pooling, dense and output layers in a
// graph.
//
// Example:
//
//	g := graph.New(autodiff.New(cpu.New()))
//	b, err := layers.NewBuilder(g, layers.DefaultHyperparameters())
//	if err != nil {
//	    return err
//	}
//	h, err := b.Convolutional(1, "net", x, 1, 8, 16, layers.UnitStrides, layers.Same)
//	h, err = b.MaxPooling(1, "net", h, 2, 2, layers.Same)
package layers

import (
	"github.com/born-ml/convnet/internal/graph"
	"github.com/born-ml/convnet/internal/layers"
)

// Errors returned by layer builders.
var (
	ErrInvalidHyperparameters = layers.ErrInvalidHyperparameters
	ErrInvalidDimension       = layers.ErrInvalidDimension
	ErrInvalidStrides         = layers.ErrInvalidStrides
	ErrInvalidKeepProb        = layers.ErrInvalidKeepProb
	ErrInvalidInit            = layers.ErrInvalidInit
	ErrShapeMismatch          = layers.ErrShapeMismatch
)

// Backend is a Born backend with ReLU and Sigmoid, such as autodiff.Backend.
type Backend = layers.Backend

// Builder creates layers in a graph.
type Builder[B Backend] = layers.Builder[B]

// Output holds logits and sigmoid predictions.
type Output[B Backend] = layers.Output[B]

// Hyperparameters of a network.
type Hyperparameters = layers.Hyperparameters

// Init describes parameter initialisation.
type Init = layers.Init

// Scheme selects the weight initialiser.
type Scheme = layers.Scheme

// Padding is SAME or VALID.
type Padding = layers.Padding

// Strides is a [batch, channel, height, width] stride sequence.
type Strides = layers.Strides

// Option configures a Builder.
type Option = layers.Option

// Constants.
const (
	Same            = layers.Same
	Valid           = layers.Valid
	TruncatedNormal = layers.TruncatedNormal
	Xavier          = layers.Xavier
)

// UnitStrides is [1, 1, 1, 1].
var UnitStrides = layers.UnitStrides

// NewBuilder creates a layer builder for g.
func NewBuilder[B Backend](g *graph.Graph[B], hp Hyperparameters, opts ...Option) (*Builder[B], error) {
	return layers.NewBuilder(g, hp, opts...)
}

// WithInit selects the parameter initialisation.
func WithInit(in Init) Option {
	return layers.WithInit(in)
}

// DefaultHyperparameters returns batch size 128, 65 labels and learning rate 1e-3.
func DefaultHyperparameters() Hyperparameters {
	return layers.DefaultHyperparameters()
}

// DefaultInit returns truncated normal weights (σ = 0.1) and biases of 0.1.
func DefaultInit() Init {
	return layers.DefaultInit()
}

// LastConvLayerDim returns floor(imgSize/strides)² · lastLayerDepth, where
// strides is the cumulative reduction of all pooling layers.
func LastConvLayerDim(imgSize, strides, lastLayerDepth int) (int, error) {
	return layers.LastConvLayerDim(imgSize, strides, lastLayerDepth)
}

// CumulativeStride multiplies the strides of a chain of layers.
func CumulativeStride(strides ...int) int {
	return layers.CumulativeStride(strides...)
}

// ConvOutputSize returns the output size of one spatial axis.
func ConvOutputSize(in, kernel, stride int, padding Padding) int {
	return layers.ConvOutputSize(in, kernel, stride, padding)
}

// ParsePadding parses "SAME" or "VALID".
func ParsePadding(s string) (Padding, error) {
	return layers.ParsePadding(s)
}
