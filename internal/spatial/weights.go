// Package spatial builds contiguity weights over a polygon layer and
// computes spatial-lag and global autocorrelation statistics from them.
package spatial

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/geoandes/landcover-cli/internal/vector"
)

// Weights holds a contiguity structure: Neighbors[i] lists the indices of
// the polygons adjacent to polygon i, in layer order.
type Weights struct {
	Neighbors [][]int
}

// Queen builds queen-contiguity weights: two polygons are neighbors when
// their boundaries share at least one vertex. Administrative layers are
// topologically clean, so shared borders always share vertices and the
// vertex test is exact for them.
func Queen(l *vector.Layer) *Weights {
	n := len(l.Features)
	byVertex := make(map[[2]float64][]int)

	for i, f := range l.Features {
		if f.Geom == nil {
			continue
		}
		flat := f.Geom.FlatCoords()
		seen := make(map[[2]float64]bool)
		for j := 0; j < len(flat); j += 2 {
			v := [2]float64{flat[j], flat[j+1]}
			if seen[v] {
				continue
			}
			seen[v] = true
			byVertex[v] = append(byVertex[v], i)
		}
	}

	adj := make([]map[int]bool, n)
	for _, ids := range byVertex {
		for _, a := range ids {
			for _, b := range ids {
				if a == b {
					continue
				}
				if adj[a] == nil {
					adj[a] = make(map[int]bool)
				}
				adj[a][b] = true
			}
		}
	}

	w := &Weights{Neighbors: make([][]int, n)}
	var islands int
	for i, set := range adj {
		if len(set) == 0 {
			islands++
			continue
		}
		for j := range set {
			w.Neighbors[i] = append(w.Neighbors[i], j)
		}
	}
	if islands > 0 {
		zap.L().Debug("spatial: layer has islands", zap.Int("islands", islands))
	}
	return w
}

// Lag computes the row-standardized spatial lag: for each polygon the mean
// of its neighbors' values. Islands and polygons whose neighbors are all
// invalid get an invalid lag.
func (w *Weights) Lag(values []float64, valid []bool) ([]float64, []bool) {
	n := len(w.Neighbors)
	lag := make([]float64, n)
	ok := make([]bool, n)

	for i, nbrs := range w.Neighbors {
		var sum float64
		var count int
		for _, j := range nbrs {
			if !valid[j] {
				continue
			}
			sum += values[j]
			count++
		}
		if count > 0 {
			lag[i] = sum / float64(count)
			ok[i] = true
		}
	}
	return lag, ok
}

// MoranI computes global Moran's I over the valid observations using
// row-standardized weights. Invalid observations and islands drop out of
// both numerator and denominator.
func MoranI(values []float64, valid []bool, w *Weights) (float64, error) {
	n := len(w.Neighbors)
	if len(values) != n || len(valid) != n {
		return 0, eris.Errorf("spatial: %d values for %d polygons", len(values), n)
	}

	var mean float64
	var count int
	for i := range values {
		if valid[i] {
			mean += values[i]
			count++
		}
	}
	if count < 2 {
		return 0, eris.New("spatial: need at least two valid observations")
	}
	mean /= float64(count)

	var num, s0, denom float64
	for i, nbrs := range w.Neighbors {
		if !valid[i] {
			continue
		}
		zi := values[i] - mean
		denom += zi * zi

		var k int
		for _, j := range nbrs {
			if valid[j] {
				k++
			}
		}
		if k == 0 {
			continue
		}
		wij := 1 / float64(k)
		for _, j := range nbrs {
			if !valid[j] {
				continue
			}
			num += wij * zi * (values[j] - mean)
			s0 += wij
		}
	}

	if denom == 0 {
		return 0, eris.New("spatial: zero variance in observations")
	}
	if s0 == 0 {
		return 0, eris.New("spatial: no contiguous valid observations")
	}
	return (float64(count) / s0) * (num / denom), nil
}
