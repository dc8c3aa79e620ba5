package raster

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T, width, height int, values []float64) *Grid {
	t.Helper()
	g, err := New(width, height, Affine{0, 1, 0, 0, 0, -1}, "EPSG:4326", DefaultNoData)
	require.NoError(t, err)
	require.Len(t, values, width*height)
	copy(g.Data, values)
	return g
}

func TestLandCoverRule(t *testing.T) {
	rule := LandCoverRule()

	in := []float64{0, 1, 2, 3, 4, 5}
	want := []float64{DefaultNoData, 1, 0, DefaultNoData, DefaultNoData, 5}

	for i, v := range in {
		assert.Equal(t, want[i], rule.Apply(v, DefaultNoData), "code %v", v)
	}
}

func TestReclassify_WholeGrid(t *testing.T) {
	g := newTestGrid(t, 3, 2, []float64{0, 1, 2, 3, 4, 5})

	out, err := Reclassify(g, LandCoverRule(), 16)
	require.NoError(t, err)

	assert.Equal(t, g.Width, out.Width)
	assert.Equal(t, g.Height, out.Height)
	assert.Equal(t, g.Transform, out.Transform)
	assert.Equal(t, []float64{DefaultNoData, 1, 0, DefaultNoData, DefaultNoData, 5}, out.Data)
}

func TestReclassify_TileSizeInvariance(t *testing.T) {
	// 7x5 grid with a repeating code pattern; tiles of 1, 2, 3 and 100 must
	// all produce the same cells as a single whole-grid pass.
	values := make([]float64, 35)
	for i := range values {
		values[i] = float64(i % 6)
	}
	g := newTestGrid(t, 7, 5, values)

	whole, err := Reclassify(g, LandCoverRule(), 100)
	require.NoError(t, err)

	for _, size := range []int{1, 2, 3, 4, 7} {
		tiled, err := Reclassify(g, LandCoverRule(), size)
		require.NoError(t, err)
		assert.Equal(t, whole.Data, tiled.Data, "tile size %d", size)
	}
}

func TestReclassify_BadTileSize(t *testing.T) {
	g := newTestGrid(t, 2, 2, []float64{1, 2, 3, 4})

	for _, size := range []int{0, -1} {
		_, err := Reclassify(g, LandCoverRule(), size)
		require.Error(t, err)
		assert.True(t, eris.Is(err, ErrBadTileSize), "tile size %d", size)
	}
}

func TestReclassify_PreservesSourceNoData(t *testing.T) {
	g := newTestGrid(t, 2, 2, []float64{DefaultNoData, 5, 2, 1})

	out, err := Reclassify(g, LandCoverRule(), 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{DefaultNoData, 5, 0, 1}, out.Data)
}

func TestReclassify_InputUntouched(t *testing.T) {
	g := newTestGrid(t, 2, 2, []float64{0, 2, 3, 4})
	before := append([]float64(nil), g.Data...)

	_, err := Reclassify(g, LandCoverRule(), 1)
	require.NoError(t, err)
	assert.Equal(t, before, g.Data)
}

func TestReclassifyParallel_MatchesSequential(t *testing.T) {
	values := make([]float64, 60*40)
	for i := range values {
		values[i] = float64(i % 7)
	}
	g := newTestGrid(t, 60, 40, values)

	seq, err := Reclassify(g, LandCoverRule(), 13)
	require.NoError(t, err)

	par, err := ReclassifyParallel(context.Background(), g, LandCoverRule(), 13, 4)
	require.NoError(t, err)

	assert.Equal(t, seq.Data, par.Data)
}

func TestReclassifyParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGrid(t, 8, 8, make([]float64, 64))
	_, err := ReclassifyParallel(ctx, g, LandCoverRule(), 2, 4)
	require.Error(t, err)
}

func TestTiles_EdgeClipping(t *testing.T) {
	parts := tiles(7, 5, 3)

	// Columns split 3+3+1, rows split 3+2.
	require.Len(t, parts, 6)
	var cells int
	for _, p := range parts {
		assert.LessOrEqual(t, p.col+p.w, 7)
		assert.LessOrEqual(t, p.row+p.h, 5)
		cells += p.w * p.h
	}
	assert.Equal(t, 35, cells)
}
