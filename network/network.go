// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package network assembles the fixed-topology convolutional network.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	g := graph.New(backend, graph.WithSeed(1))
//	b, _ := layers.NewBuilder(g, layers.DefaultHyperparameters())
//	a := network.NewAssembler(b)
//	out, err := a.AddLayers(x, 64, 1, 65, "letters")
//	// out.Logits, out.YPred: [batch, 65]
package network

import (
	"github.com/born-ml/convnet/internal/layers"
	"github.com/born-ml/convnet/internal/network"
)

// ErrFlattenMismatch is returned when the image size is not a multiple of
// the cumulative pooling stride.
var ErrFlattenMismatch = network.ErrFlattenMismatch

// Assembler builds networks with a layer builder.
type Assembler[B layers.Backend] = network.Assembler[B]

// Topology is the layer table an Assembler builds from.
type Topology = network.Topology

// ConvBlock is a convolution followed by max pooling.
type ConvBlock = network.ConvBlock

// Dense is a fully connected layer.
type Dense = network.Dense

// LayerInfo describes one layer of an assembled network.
type LayerInfo = network.LayerInfo

// NewAssembler creates an assembler around b.
func NewAssembler[B layers.Backend](b *layers.Builder[B]) *Assembler[B] {
	return network.NewAssembler(b)
}

// DefaultTopology returns the six-block reference network.
func DefaultTopology(nbChannels, nbLabels int) Topology {
	return network.DefaultTopology(nbChannels, nbLabels)
}

// Describe traces the reference network without building it.
func Describe(batch, imgSize, nbChannels, nbLabels int, networkName string) ([]LayerInfo, error) {
	return network.Describe(batch, imgSize, nbChannels, nbLabels, networkName)
}

// TotalParams sums the parameter counts of infos.
func TotalParams(infos []LayerInfo) int {
	return network.TotalParams(infos)
}
