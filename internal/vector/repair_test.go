package vector

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func mpFromRings(t *testing.T, rings ...[]float64) *geom.MultiPolygon {
	t.Helper()
	poly := geom.NewPolygon(geom.XY)
	for _, r := range rings {
		require.NoError(t, poly.Push(geom.NewLinearRingFlat(geom.XY, r)))
	}
	mp := geom.NewMultiPolygon(geom.XY)
	require.NoError(t, mp.Push(poly))
	return mp
}

func TestRepair_ValidLayerUntouched(t *testing.T) {
	shell := []float64{0, 0, 0, 2, 2, 2, 2, 0, 0, 0}
	l := &Layer{Features: []Feature{{Geom: mpFromRings(t, shell)}}}

	require.NoError(t, Repair(l))
	assert.Equal(t, shell, l.Features[0].Geom.Polygon(0).LinearRing(0).FlatCoords())
}

func TestRepair_ClosesOpenRing(t *testing.T) {
	open := []float64{0, 0, 0, 2, 2, 2, 2, 0}
	l := &Layer{Features: []Feature{{Geom: mpFromRings(t, open)}}}

	require.NoError(t, Repair(l))
	got := l.Features[0].Geom.Polygon(0).LinearRing(0).FlatCoords()
	assert.Equal(t, []float64{0, 0, 0, 2, 2, 2, 2, 0, 0, 0}, got)
}

func TestRepair_DropsDegenerateHole(t *testing.T) {
	shell := []float64{0, 0, 0, 4, 4, 4, 4, 0, 0, 0}
	// Zero-area sliver hole.
	sliver := []float64{1, 1, 2, 2, 1, 1, 2, 2, 1, 1}
	l := &Layer{Features: []Feature{{Geom: mpFromRings(t, shell, sliver)}}}

	require.NoError(t, Repair(l))
	assert.Equal(t, 1, l.Features[0].Geom.Polygon(0).NumLinearRings())
}

func TestRepair_UnrepairableShell(t *testing.T) {
	// A collapsed shell has nothing left after repair.
	collapsed := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	l := &Layer{Features: []Feature{{Geom: mpFromRings(t, collapsed)}}}

	err := Repair(l)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidGeometry))
	assert.Contains(t, err.Error(), "feature 0")
}

func TestRepair_NilGeometry(t *testing.T) {
	l := &Layer{Features: []Feature{{Geom: nil}}}

	err := Repair(l)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidGeometry))
}
