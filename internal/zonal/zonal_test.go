package zonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/geoandes/landcover-cli/internal/raster"
)

// fillGrid builds a width x height grid with unit cells, origin at (0, height)
// north-up, every cell set to value.
func fillGrid(t *testing.T, width, height int, value float64) *raster.Grid {
	t.Helper()
	g, err := raster.New(width, height, raster.Affine{0, 1, 0, float64(height), 0, -1}, "EPSG:4326", raster.DefaultNoData)
	require.NoError(t, err)
	for i := range g.Data {
		g.Data[i] = value
	}
	return g
}

func rect(t *testing.T, minX, minY, maxX, maxY float64) *geom.MultiPolygon {
	t.Helper()
	shell := []float64{minX, minY, minX, maxY, maxX, maxY, maxX, minY, minX, minY}
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, shell)))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))
	return mp
}

func TestMean_UniformCoverage(t *testing.T) {
	g := fillGrid(t, 4, 4, 5)

	// Polygon exactly covering cells (1,1)-(2,2).
	means, err := Mean(g, []*geom.MultiPolygon{rect(t, 1, 1, 3, 3)})
	require.NoError(t, err)
	require.NotNil(t, means[0])
	assert.InDelta(t, 5.0, *means[0], 1e-9)
}

func TestMean_NoDataPolygonIsNull(t *testing.T) {
	g := fillGrid(t, 4, 4, raster.DefaultNoData)
	// Right half has data.
	for row := 0; row < 4; row++ {
		for col := 2; col < 4; col++ {
			g.Set(col, row, 5)
		}
	}

	means, err := Mean(g, []*geom.MultiPolygon{
		rect(t, 0, 0, 2, 4), // fully over no-data
		rect(t, 2, 0, 4, 4), // fully over value 5
	})
	require.NoError(t, err)

	assert.Nil(t, means[0], "all-nodata polygon must be null, not zero")
	require.NotNil(t, means[1])
	assert.InDelta(t, 5.0, *means[1], 1e-9)
}

func TestMean_BoundaryWeighting(t *testing.T) {
	// 2x1 grid: left cell 0, right cell 10. A polygon covering all of the
	// left cell and half of the right weighs the right cell at 0.5:
	// (0*1 + 10*0.5) / 1.5 = 10/3.
	g := fillGrid(t, 2, 1, 0)
	g.Set(1, 0, 10)

	means, err := Mean(g, []*geom.MultiPolygon{rect(t, 0, 0, 1.5, 1)})
	require.NoError(t, err)
	require.NotNil(t, means[0])
	assert.InDelta(t, 10.0/3.0, *means[0], 1e-9)
}

func TestMean_HoleExcluded(t *testing.T) {
	// 4x4 grid of value 7 with a polygon whose hole removes the center
	// 2x2 block; the mean is still 7 but the weight drops accordingly.
	g := fillGrid(t, 4, 4, 7)

	shell := []float64{0, 0, 0, 4, 4, 4, 4, 0, 0, 0}
	hole := []float64{1, 1, 3, 1, 3, 3, 1, 3, 1, 1}
	poly := geom.NewPolygon(geom.XY)
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, shell)))
	require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, hole)))
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))

	means, err := Mean(g, []*geom.MultiPolygon{mp})
	require.NoError(t, err)
	require.NotNil(t, means[0])
	assert.InDelta(t, 7.0, *means[0], 1e-9)
}

func TestMean_OutsideGridIsNull(t *testing.T) {
	g := fillGrid(t, 2, 2, 1)

	means, err := Mean(g, []*geom.MultiPolygon{rect(t, 100, 100, 101, 101), nil})
	require.NoError(t, err)
	assert.Nil(t, means[0])
	assert.Nil(t, means[1])
}

func TestMean_RotatedGridRejected(t *testing.T) {
	g, err := raster.New(2, 2, raster.Affine{0, 1, 0.3, 2, 0.1, -1}, "", raster.DefaultNoData)
	require.NoError(t, err)

	_, err = Mean(g, nil)
	require.Error(t, err)
}

func TestMean_MixedValues(t *testing.T) {
	// 2x2 grid [1 2 / 3 nodata]; polygon covers everything: mean of 1,2,3.
	g := fillGrid(t, 2, 2, raster.DefaultNoData)
	g.Set(0, 0, 1)
	g.Set(1, 0, 2)
	g.Set(0, 1, 3)

	means, err := Mean(g, []*geom.MultiPolygon{rect(t, 0, 0, 2, 2)})
	require.NoError(t, err)
	require.NotNil(t, means[0])
	assert.InDelta(t, 2.0, *means[0], 1e-9)
}

func TestClippedRingArea(t *testing.T) {
	ring := []float64{0, 0, 0, 2, 2, 2, 2, 0, 0, 0}

	assert.InDelta(t, 4.0, clippedRingArea(ring, -1, -1, 3, 3), 1e-12)
	assert.InDelta(t, 1.0, clippedRingArea(ring, 1, 1, 3, 3), 1e-12)
	assert.InDelta(t, 0.0, clippedRingArea(ring, 5, 5, 6, 6), 1e-12)
}
