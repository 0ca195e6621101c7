package network

import (
	"github.com/born-ml/born/tensor"
	"github.com/born-ml/convnet/internal/graph"
	"github.com/born-ml/convnet/internal/layers"
)

// LayerInfo describes one layer of an assembled network.
type LayerInfo struct {
	Scope  string
	Kind   graph.Kind
	Shape  tensor.Shape // output shape
	Params int
}

// Describe traces the reference network without building it.
func Describe(batch, imgSize, nbChannels, nbLabels int, networkName string) ([]LayerInfo, error) {
	return DescribeTopology(batch, imgSize, DefaultTopology(nbChannels, nbLabels), networkName)
}

// DescribeTopology returns the scope, output shape and parameter count of
// every layer Build would create. It validates like Build but does not touch
// any graph.
func DescribeTopology(batch, imgSize int, topo Topology, networkName string) ([]LayerInfo, error) {
	flat, err := check(imgSize, topo, networkName)
	if err != nil {
		return nil, err
	}
	if batch <= 0 {
		batch = 1
	}
	scope := func(kind graph.Kind, counter int) string {
		return graph.ScopeID{Network: networkName, Kind: kind, Counter: counter}.String()
	}

	infos := make([]LayerInfo, 0, 2*len(topo.Blocks)+len(topo.Dense)+1)
	side := imgSize
	for i, b := range topo.Blocks {
		side = layers.ConvOutputSize(side, b.Kernel, 1, topo.Padding)
		infos = append(infos, LayerInfo{
			Scope:  scope(graph.Conv, i+1),
			Kind:   graph.Conv,
			Shape:  tensor.Shape{batch, b.OutDepth, side, side},
			Params: b.OutDepth*b.InDepth*b.Kernel*b.Kernel + b.OutDepth,
		})
		side = layers.PoolOutputSize(side, b.PoolKernel, b.PoolStride, topo.Padding)
		infos = append(infos, LayerInfo{
			Scope: scope(graph.Pool, i+1),
			Kind:  graph.Pool,
			Shape: tensor.Shape{batch, b.OutDepth, side, side},
		})
	}

	in := flat
	for i, d := range topo.Dense {
		infos = append(infos, LayerInfo{
			Scope:  scope(graph.FC, i+1),
			Kind:   graph.FC,
			Shape:  tensor.Shape{batch, d.OutDepth},
			Params: in*d.OutDepth + d.OutDepth,
		})
		in = d.OutDepth
	}
	infos = append(infos, LayerInfo{
		Scope:  scope(graph.Output, 0),
		Kind:   graph.Output,
		Shape:  tensor.Shape{batch, topo.Labels},
		Params: in*topo.Labels + topo.Labels,
	})
	return infos, nil
}

// TotalParams sums the parameter counts of infos.
func TotalParams(infos []LayerInfo) int {
	total := 0
	for _, l := range infos {
		total += l.Params
	}
	return total
}
