package network

import (
	"fmt"

	"github.com/born-ml/convnet/internal/layers"
)

// ConvBlock is a convolution followed by max pooling.
type ConvBlock struct {
	InDepth    int
	OutDepth   int
	Kernel     int
	PoolKernel int
	PoolStride int
}

// Dense is a fully connected layer.
type Dense struct {
	OutDepth int
	KeepProb float64
}

// Topology is the layer table an Assembler builds from.
type Topology struct {
	Blocks  []ConvBlock
	Dense   []Dense
	Labels  int
	Padding layers.Padding
}

// Reference topology constants.
const (
	ConvKernel = 8
	PoolKernel = 2
	PoolStride = 2
	HiddenSize = 1024
	KeepProb   = 0.75
)

// DefaultTopology returns the reference network: six conv(k8)+pool(k2, s2)
// blocks with depths 16, 16, 32, 32, 64, 64, two dense layers of 1024 units
// and an output layer of nbLabels.
func DefaultTopology(nbChannels, nbLabels int) Topology {
	depths := []int{16, 16, 32, 32, 64, 64}
	blocks := make([]ConvBlock, len(depths))
	in := nbChannels
	for i, out := range depths {
		blocks[i] = ConvBlock{
			InDepth:    in,
			OutDepth:   out,
			Kernel:     ConvKernel,
			PoolKernel: PoolKernel,
			PoolStride: PoolStride,
		}
		in = out
	}
	return Topology{
		Blocks: blocks,
		Dense: []Dense{
			{OutDepth: HiddenSize, KeepProb: KeepProb},
			{OutDepth: HiddenSize, KeepProb: KeepProb},
		},
		Labels:  nbLabels,
		Padding: layers.Same,
	}
}

// CumulativeStride is the spatial reduction of all pooling layers.
func (t Topology) CumulativeStride() int {
	strides := make([]int, len(t.Blocks))
	for i, b := range t.Blocks {
		strides[i] = b.PoolStride
	}
	return layers.CumulativeStride(strides...)
}

// Validate checks that the table is non-empty and consistently chained.
func (t Topology) Validate() error {
	if len(t.Blocks) == 0 {
		return fmt.Errorf("%w: topology has no convolution blocks", layers.ErrInvalidDimension)
	}
	for i, b := range t.Blocks {
		if b.InDepth <= 0 || b.OutDepth <= 0 || b.Kernel <= 0 || b.PoolKernel <= 0 || b.PoolStride <= 0 {
			return fmt.Errorf("%w: block %d %+v", layers.ErrInvalidDimension, i+1, b)
		}
		if i > 0 && t.Blocks[i-1].OutDepth != b.InDepth {
			return fmt.Errorf("%w: block %d expects depth %d, previous block outputs %d",
				layers.ErrShapeMismatch, i+1, b.InDepth, t.Blocks[i-1].OutDepth)
		}
	}
	for i, d := range t.Dense {
		if d.OutDepth <= 0 {
			return fmt.Errorf("%w: dense layer %d has %d units", layers.ErrInvalidDimension, i+1, d.OutDepth)
		}
		if !(d.KeepProb > 0 && d.KeepProb <= 1) {
			return fmt.Errorf("%w: dense layer %d keep %v", layers.ErrInvalidKeepProb, i+1, d.KeepProb)
		}
	}
	if t.Labels <= 0 {
		return fmt.Errorf("%w: %d labels", layers.ErrInvalidDimension, t.Labels)
	}
	return nil
}

// flatDim returns the feature count entering the dense stack.
//
// Under SAME padding the image must be a multiple of the cumulative stride,
// so the side after the last pool is exactly imgSize/stride. VALID layers
// shrink the image, so the side is traced layer by layer.
func (t Topology) flatDim(imgSize int) (int, error) {
	last := t.Blocks[len(t.Blocks)-1].OutDepth
	if t.Padding == layers.Same {
		stride := t.CumulativeStride()
		dim, err := layers.LastConvLayerDim(imgSize, stride, last)
		if err != nil {
			return 0, err
		}
		if imgSize%stride != 0 {
			return 0, fmt.Errorf("%w: image size %d is not a multiple of the cumulative stride %d",
				ErrFlattenMismatch, imgSize, stride)
		}
		return dim, nil
	}

	side := imgSize
	for i, b := range t.Blocks {
		side = layers.ConvOutputSize(side, b.Kernel, 1, t.Padding)
		if side > 0 {
			side = layers.PoolOutputSize(side, b.PoolKernel, b.PoolStride, t.Padding)
		}
		if side <= 0 {
			return 0, fmt.Errorf("%w: image of %d pixels vanishes at block %d",
				layers.ErrInvalidDimension, imgSize, i+1)
		}
	}
	return side * side * last, nil
}
