package layers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePadding(t *testing.T) {
	p, err := ParsePadding("SAME")
	require.NoError(t, err)
	assert.Equal(t, Same, p)
	p, err = ParsePadding("valid")
	require.NoError(t, err)
	assert.Equal(t, Valid, p)
	_, err = ParsePadding("full")
	assert.Error(t, err)

	assert.Equal(t, "SAME", Same.String())
	assert.Equal(t, "VALID", Valid.String())
}

func TestStrides_Spatial(t *testing.T) {
	s, err := Strides{}.Spatial()
	require.NoError(t, err)
	assert.Equal(t, 1, s)

	s, err = Strides{1, 2, 2, 1}.Spatial()
	assert.ErrorIs(t, err, ErrInvalidStrides)
	assert.Zero(t, s)

	s, err = Strides{1, 1, 3, 3}.Spatial()
	require.NoError(t, err)
	assert.Equal(t, 3, s)

	_, err = Strides{1, 1, 2, 3}.Spatial()
	assert.ErrorIs(t, err, ErrInvalidStrides)
	_, err = Strides{1, 1, 0, 0}.Spatial()
	assert.ErrorIs(t, err, ErrInvalidStrides)
}

func TestOutputSize(t *testing.T) {
	tests := []struct {
		in, kernel, stride int
		padding            Padding
		want               int
	}{
		{64, 5, 1, Same, 64},
		{64, 2, 2, Same, 32},
		{7, 2, 2, Same, 4},
		{1, 2, 2, Same, 1},
		{10, 3, 1, Valid, 8},
		{10, 3, 2, Valid, 4},
		{2, 3, 1, Valid, 0},
		{0, 3, 1, Same, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConvOutputSize(tt.in, tt.kernel, tt.stride, tt.padding),
			"in=%d k=%d s=%d %v", tt.in, tt.kernel, tt.stride, tt.padding)
		assert.Equal(t, tt.want, PoolOutputSize(tt.in, tt.kernel, tt.stride, tt.padding))
	}
}

func TestSamePadding(t *testing.T) {
	tests := []struct {
		in, kernel, stride  int
		wantBefore, wantAft int
	}{
		{64, 5, 1, 2, 2},
		{64, 8, 1, 3, 4},
		{64, 2, 2, 0, 0},
		{7, 2, 2, 0, 1},
		{16, 5, 2, 1, 2},
		{1, 1, 1, 0, 0},
	}
	for _, tt := range tests {
		before, after := SamePadding(tt.in, tt.kernel, tt.stride)
		assert.Equal(t, tt.wantBefore, before, "in=%d k=%d s=%d", tt.in, tt.kernel, tt.stride)
		assert.Equal(t, tt.wantAft, after, "in=%d k=%d s=%d", tt.in, tt.kernel, tt.stride)
	}
}

func TestLastConvLayerDim(t *testing.T) {
	tests := []struct {
		img, strides, depth int
		want                int
	}{
		{64, 64, 256, 256},
		{128, 64, 256, 1024},
		{64, 8, 2, 128},
		{100, 64, 1, 1},
	}
	for _, tt := range tests {
		got, err := LastConvLayerDim(tt.img, tt.strides, tt.depth)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := LastConvLayerDim(32, 64, 256)
	assert.ErrorIs(t, err, ErrInvalidDimension)
	_, err = LastConvLayerDim(64, 0, 256)
	assert.ErrorIs(t, err, ErrInvalidDimension)
	_, err = LastConvLayerDim(64, 64, -1)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestCumulativeStride(t *testing.T) {
	assert.Equal(t, 64, CumulativeStride(2, 2, 2, 2, 2, 2))
	assert.Equal(t, 1, CumulativeStride())
}

func TestEdges_Split(t *testing.T) {
	sym, rest := sameEdges(64, 64, 8, 1).split()
	assert.Equal(t, 3, sym)
	assert.Equal(t, edges{bottom: 1, right: 1}, rest)

	sym, rest = sameEdges(64, 64, 5, 1).split()
	assert.Equal(t, 2, sym)
	assert.True(t, rest.empty())
}
