// Package network assembles the fixed-topology convolutional network from
// the layer builders.
//
// AddLayers builds, in order:
//
//	conv1..conv6  kernel 8, SAME, each followed by a 2x2 max pool (stride 2)
//	fc1, fc2      1024 units, keep probability 0.75
//	output_layer  nbLabels logits and their sigmoid
//
// Every scope is prefixed with the network name, so several networks can
// live in one graph as long as their names differ.
package network

import (
	"errors"
	"fmt"

	"github.com/born-ml/convnet/internal/graph"
	"github.com/born-ml/convnet/internal/layers"
	"github.com/born-ml/convnet/internal/parallel"
	"go.dedis.ch/onet/v3/log"
)

// ErrFlattenMismatch is returned when the last pooled tensor cannot be
// flattened to an integer feature count.
var ErrFlattenMismatch = errors.New("network: flattened dimension mismatch")

// Assembler builds networks with a layer builder.
type Assembler[B layers.Backend] struct {
	builder *layers.Builder[B]
}

// NewAssembler creates an assembler around b.
func NewAssembler[B layers.Backend](b *layers.Builder[B]) *Assembler[B] {
	return &Assembler[B]{builder: b}
}

// Builder returns the layer builder.
func (a *Assembler[B]) Builder() *layers.Builder[B] {
	return a.builder
}

// AddLayers builds the reference network on input, which must be
// [batch, nbChannels, imgSize, imgSize].
func (a *Assembler[B]) AddLayers(input *graph.Tensor[B], imgSize, nbChannels, nbLabels int, networkName string) (*layers.Output[B], error) {
	return a.Build(input, imgSize, DefaultTopology(nbChannels, nbLabels), networkName)
}

// Build builds a network from an arbitrary topology.
//
// Build is all or nothing: when a layer fails, the scopes and parameters of
// the layers already built for networkName are released, so the same name
// can be built again without a Reset.
func (a *Assembler[B]) Build(input *graph.Tensor[B], imgSize int, topo Topology, networkName string) (_ *layers.Output[B], err error) {
	flat, err := check(imgSize, topo, networkName)
	if err != nil {
		return nil, err
	}
	if input == nil {
		return nil, fmt.Errorf("%s: %w: nil input", networkName, layers.ErrShapeMismatch)
	}
	s := input.Shape()
	depth := topo.Blocks[0].InDepth
	if len(s) != 4 || s[0] <= 0 || s[1] != depth || s[2] != imgSize || s[3] != imgSize {
		return nil, fmt.Errorf("%s: %w: expected [batch, %d, %d, %d], got %v",
			networkName, layers.ErrShapeMismatch, depth, imgSize, imgSize, s)
	}

	var built []graph.ScopeID
	defer func() {
		if err != nil {
			a.builder.Graph().Release(built...)
		}
	}()
	scope := func(kind graph.Kind, counter int) graph.ScopeID {
		return graph.ScopeID{Network: networkName, Kind: kind, Counter: counter}
	}

	b := a.builder
	x := input
	for i, blk := range topo.Blocks {
		counter := i + 1
		x, err = b.Convolutional(counter, networkName, x, blk.InDepth, blk.Kernel, blk.OutDepth, layers.UnitStrides, topo.Padding)
		if err != nil {
			return nil, err
		}
		built = append(built, scope(graph.Conv, counter))
		x, err = b.MaxPooling(counter, networkName, x, blk.PoolKernel, blk.PoolStride, topo.Padding)
		if err != nil {
			return nil, err
		}
		built = append(built, scope(graph.Pool, counter))
	}

	in := flat
	for i, d := range topo.Dense {
		x, err = b.FullyConnected(i+1, networkName, x, in, d.OutDepth, d.KeepProb)
		if err != nil {
			return nil, err
		}
		built = append(built, scope(graph.FC, i+1))
		in = d.OutDepth
	}
	if len(topo.Dense) == 0 {
		if x, err = flatten(x, flat); err != nil {
			return nil, fmt.Errorf("%s: %w", networkName, err)
		}
	}

	out, err := b.OutputLayer(networkName, x, in, topo.Labels)
	if err != nil {
		return nil, err
	}
	log.Lvlf2("%s: built %d conv blocks, %d dense layers, %d labels (flat %d)",
		networkName, len(topo.Blocks), len(topo.Dense), topo.Labels, flat)
	return out, nil
}

// flatten reshapes the last pooled tensor to [batch, dim].
func flatten[B layers.Backend](x *graph.Tensor[B], dim int) (*graph.Tensor[B], error) {
	s := x.Shape()
	if len(s) == 0 {
		return nil, fmt.Errorf("%w: cannot flatten a scalar", layers.ErrShapeMismatch)
	}
	if s.NumElements() != s[0]*dim {
		return nil, fmt.Errorf("%w: %v cannot be flattened to [%d, %d]", layers.ErrShapeMismatch, s, s[0], dim)
	}
	return x.Reshape(s[0], dim), nil
}

// AddNetworks builds one reference network per name on the matching input,
// using up to workers goroutines. Errors of all networks are joined.
func (a *Assembler[B]) AddNetworks(inputs []*graph.Tensor[B], imgSize, nbChannels, nbLabels int, names []string, workers int) ([]*layers.Output[B], error) {
	if len(inputs) != len(names) {
		return nil, fmt.Errorf("network: %d inputs for %d names", len(inputs), len(names))
	}
	outs := make([]*layers.Output[B], len(names))
	err := parallel.For(len(names), func(i int) error {
		out, err := a.AddLayers(inputs[i], imgSize, nbChannels, nbLabels, names[i])
		if err != nil {
			return err
		}
		outs[i] = out
		return nil
	}, parallel.Workers(workers))
	if err != nil {
		return nil, err
	}
	return outs, nil
}

// check validates everything that does not depend on the input tensor and
// returns the flattened feature count.
func check(imgSize int, topo Topology, name string) (int, error) {
	if err := (graph.ScopeID{Network: name, Kind: graph.Conv, Counter: 1}).Validate(); err != nil {
		return 0, err
	}
	if imgSize <= 0 {
		return 0, fmt.Errorf("%w: image size %d", layers.ErrInvalidDimension, imgSize)
	}
	if err := topo.Validate(); err != nil {
		return 0, err
	}
	return topo.flatDim(imgSize)
}
