package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidShape(t *testing.T) {
	_, err := New(0, 10, Affine{}, "", 0)
	require.Error(t, err)

	_, err = New(10, -1, Affine{}, "", 0)
	require.Error(t, err)
}

func TestGrid_Bounds(t *testing.T) {
	// 4x2 grid, 0.5 degree cells, origin at (-80, 0), north-up.
	g, err := New(4, 2, Affine{-80, 0.5, 0, 0, 0, -0.5}, "EPSG:4326", DefaultNoData)
	require.NoError(t, err)

	minX, minY, maxX, maxY, err := g.Bounds()
	require.NoError(t, err)
	assert.Equal(t, -80.0, minX)
	assert.Equal(t, -1.0, minY)
	assert.Equal(t, -78.0, maxX)
	assert.Equal(t, 0.0, maxY)
}

func TestGrid_Bounds_Rotated(t *testing.T) {
	g, err := New(2, 2, Affine{0, 1, 0.1, 0, 0, -1}, "", 0)
	require.NoError(t, err)

	_, _, _, _, err = g.Bounds()
	require.Error(t, err)
}

func TestGrid_CellRect(t *testing.T) {
	g, err := New(4, 2, Affine{-80, 0.5, 0, 0, 0, -0.5}, "EPSG:4326", DefaultNoData)
	require.NoError(t, err)

	minX, minY, maxX, maxY := g.CellRect(1, 0)
	assert.Equal(t, -79.5, minX)
	assert.Equal(t, -0.5, minY)
	assert.Equal(t, -79.0, maxX)
	assert.Equal(t, 0.0, maxY)
}

func TestGrid_IsNoData_NaN(t *testing.T) {
	g, err := New(1, 1, Affine{}, "", math.NaN())
	require.NoError(t, err)

	assert.True(t, g.IsNoData(math.NaN()))
	assert.False(t, g.IsNoData(0))
}

func TestAffine_ShiftCols(t *testing.T) {
	a := Affine{-80, 0.5, 0, 0, 0, -0.5}
	shifted := a.ShiftCols(4)

	assert.Equal(t, -78.0, shifted[0])
	assert.Equal(t, a[3], shifted[3])
	assert.Equal(t, a[1], shifted[1])
}

func TestCropColumns(t *testing.T) {
	g, err := New(4, 2, Affine{-80, 0.5, 0, 0, 0, -0.5}, "EPSG:4326", DefaultNoData)
	require.NoError(t, err)
	copy(g.Data, []float64{1, 2, 3, 4, 5, 6, 7, 8})

	out, err := CropColumns(g, 1, 3)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Equal(t, []float64{2, 3, 6, 7}, out.Data)
	assert.Equal(t, -79.5, out.Transform[0])
}

func TestCropColumns_FullWidthNoCopy(t *testing.T) {
	g, err := New(4, 2, Affine{-80, 0.5, 0, 0, 0, -0.5}, "EPSG:4326", DefaultNoData)
	require.NoError(t, err)

	out, err := CropColumns(g, 0, 0)
	require.NoError(t, err)
	assert.Same(t, g, out)
}

func TestCropColumns_OutOfRange(t *testing.T) {
	g, err := New(4, 2, Affine{}, "", 0)
	require.NoError(t, err)

	cases := [][2]int{{-1, 2}, {2, 2}, {3, 2}, {0, 5}}
	for _, c := range cases {
		_, err := CropColumns(g, c[0], c[1])
		require.Error(t, err, "crop [%d, %d)", c[0], c[1])
	}
}
