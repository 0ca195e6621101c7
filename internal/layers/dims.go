package layers

import (
	"fmt"
)

// Padding is the spatial padding policy of a convolution or pooling layer.
type Padding int

// Padding policies. The zero value is Same.
const (
	// Same pads the input so that the output spatial size is ceil(in/stride).
	Same Padding = iota
	// Valid applies no padding: ceil((in-kernel+1)/stride).
	Valid
)

// String returns the conventional upper-case name of the policy.
func (p Padding) String() string {
	switch p {
	case Same:
		return "SAME"
	case Valid:
		return "VALID"
	default:
		return fmt.Sprintf("Padding(%d)", int(p))
	}
}

// ParsePadding parses "SAME" or "VALID", in upper or lower case.
func ParsePadding(s string) (Padding, error) {
	switch s {
	case "SAME", "same":
		return Same, nil
	case "VALID", "valid":
		return Valid, nil
	default:
		return 0, fmt.Errorf("%w: unknown padding %q", ErrInvalidDimension, s)
	}
}

// Strides is a per-axis stride sequence in [batch, channel, height, width]
// order. Only [1, 1, s, s] is accepted. The zero value means unit strides.
type Strides [4]int

// UnitStrides is the default convolution stride.
var UnitStrides = Strides{1, 1, 1, 1}

// Spatial returns the square spatial stride.
func (s Strides) Spatial() (int, error) {
	if s == (Strides{}) {
		return 1, nil
	}
	if s[0] != 1 || s[1] != 1 {
		return 0, fmt.Errorf("%w: batch and channel strides must be 1, got %v", ErrInvalidStrides, [4]int(s))
	}
	if s[2] <= 0 || s[2] != s[3] {
		return 0, fmt.Errorf("%w: spatial strides must be equal and positive, got %v", ErrInvalidStrides, [4]int(s))
	}
	return s[2], nil
}

// ConvOutputSize returns the output size of one spatial axis.
//
//	SAME:  ceil(in / stride)
//	VALID: ceil((in - kernel + 1) / stride)
//
// Returns 0 when VALID leaves no complete window.
func ConvOutputSize(in, kernel, stride int, padding Padding) int {
	if in <= 0 || kernel <= 0 || stride <= 0 {
		return 0
	}
	if padding == Valid {
		if in < kernel {
			return 0
		}
		return ceilDiv(in-kernel+1, stride)
	}
	return ceilDiv(in, stride)
}

// PoolOutputSize is ConvOutputSize for pooling windows.
func PoolOutputSize(in, kernel, stride int, padding Padding) int {
	return ConvOutputSize(in, kernel, stride, padding)
}

// SamePadding returns the padding added before and after one spatial axis
// under the SAME policy. The odd remainder goes after.
func SamePadding(in, kernel, stride int) (before, after int) {
	total := max((ceilDiv(in, stride)-1)*stride+kernel-in, 0)
	before = total / 2
	return before, total - before
}

// CumulativeStride returns the total spatial reduction factor of a chain of
// layers with the given strides.
//
// Six stride-2 poolings give 2^6 = 64.
func CumulativeStride(strides ...int) int {
	product := 1
	for _, s := range strides {
		product *= s
	}
	return product
}

// LastConvLayerDim returns the flattened feature count of the last pooled
// tensor: floor(imgSize/strides)² · lastLayerDepth.
//
// strides must be the cumulative reduction factor of every pooling layer
// applied so far (see CumulativeStride), not the stride of a single layer.
func LastConvLayerDim(imgSize, strides, lastLayerDepth int) (int, error) {
	if imgSize <= 0 || strides <= 0 || lastLayerDepth <= 0 {
		return 0, fmt.Errorf("%w: img_size=%d strides=%d depth=%d",
			ErrInvalidDimension, imgSize, strides, lastLayerDepth)
	}
	side := imgSize / strides
	dim := side * side * lastLayerDepth
	if dim <= 0 {
		return 0, fmt.Errorf("%w: image of %d pixels vanishes after a reduction of %d",
			ErrInvalidDimension, imgSize, strides)
	}
	return dim, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
