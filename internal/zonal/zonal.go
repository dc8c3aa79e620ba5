// Package zonal computes per-polygon statistics over raster grids. Edge
// cells are weighted by the fraction of their area inside the polygon
// boundary, computed by clipping the polygon against each cell rectangle.
package zonal

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/geoandes/landcover-cli/internal/raster"
)

// Mean computes the coverage-weighted mean of g's cells inside each polygon,
// one result per polygon aligned by polygon order. No-data cells are
// excluded; a polygon overlapping only no-data (or nothing at all) yields
// nil, never zero. The grid and polygons must already share a CRS — that
// alignment is the caller's contract, checked upstream.
func Mean(g *raster.Grid, polys []*geom.MultiPolygon) ([]*float64, error) {
	if g.Transform.Rotated() {
		return nil, eris.New("zonal: rotated rasters are not supported")
	}

	gMinX, gMinY, gMaxX, gMaxY, err := g.Bounds()
	if err != nil {
		return nil, err
	}
	cw, ch := g.Transform.CellSize()
	cellArea := math.Abs(cw * ch)

	out := make([]*float64, len(polys))
	for i, mp := range polys {
		if mp == nil {
			continue
		}
		b := mp.Bounds()
		if b.Min(0) >= gMaxX || b.Max(0) <= gMinX || b.Min(1) >= gMaxY || b.Max(1) <= gMinY {
			continue
		}

		c0, r0, c1, r1 := cellRange(g, b.Min(0), b.Min(1), b.Max(0), b.Max(1))

		var sum, weight float64
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				v := g.At(col, row)
				if g.IsNoData(v) {
					continue
				}
				minX, minY, maxX, maxY := g.CellRect(col, row)
				frac := coverage(mp, minX, minY, maxX, maxY) / cellArea
				if frac <= 0 {
					continue
				}
				if frac > 1 {
					frac = 1
				}
				sum += v * frac
				weight += frac
			}
		}

		if weight > 0 {
			mean := sum / weight
			out[i] = &mean
		}
	}
	return out, nil
}

// cellRange maps a geographic box to the inclusive cell index range it
// touches, clipped to the grid.
func cellRange(g *raster.Grid, minX, minY, maxX, maxY float64) (c0, r0, c1, r1 int) {
	x0, y0 := g.Transform.Origin()
	cw, ch := g.Transform.CellSize()

	colAt := func(x float64) int { return int(math.Floor((x - x0) / cw)) }
	rowAt := func(y float64) int { return int(math.Floor((y - y0) / ch)) }

	c0, c1 = colAt(minX), colAt(maxX)
	// ch is negative for north-up grids, so maxY maps to the smaller row.
	r0, r1 = rowAt(maxY), rowAt(minY)

	c0 = clamp(c0, 0, g.Width-1)
	c1 = clamp(c1, 0, g.Width-1)
	r0 = clamp(r0, 0, g.Height-1)
	r1 = clamp(r1, 0, g.Height-1)
	return c0, r0, c1, r1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// coverage returns the area of the multipolygon's intersection with the
// rectangle. Shell areas count positive, hole areas negative.
func coverage(mp *geom.MultiPolygon, minX, minY, maxX, maxY float64) float64 {
	var area float64
	for pi := 0; pi < mp.NumPolygons(); pi++ {
		poly := mp.Polygon(pi)
		for ri := 0; ri < poly.NumLinearRings(); ri++ {
			a := clippedRingArea(poly.LinearRing(ri).FlatCoords(), minX, minY, maxX, maxY)
			if ri == 0 {
				area += a
			} else {
				area -= a
			}
		}
	}
	if area < 0 {
		return 0
	}
	return area
}

// clippedRingArea clips a ring against the rectangle with Sutherland-Hodgman
// and returns the absolute area of the clipped polygon.
func clippedRingArea(flat []float64, minX, minY, maxX, maxY float64) float64 {
	pts := flat
	pts = clipHalfPlane(pts, func(x, y float64) bool { return x >= minX }, func(ax, ay, bx, by float64) (float64, float64) {
		t := (minX - ax) / (bx - ax)
		return minX, ay + t*(by-ay)
	})
	pts = clipHalfPlane(pts, func(x, y float64) bool { return x <= maxX }, func(ax, ay, bx, by float64) (float64, float64) {
		t := (maxX - ax) / (bx - ax)
		return maxX, ay + t*(by-ay)
	})
	pts = clipHalfPlane(pts, func(x, y float64) bool { return y >= minY }, func(ax, ay, bx, by float64) (float64, float64) {
		t := (minY - ay) / (by - ay)
		return ax + t*(bx-ax), minY
	})
	pts = clipHalfPlane(pts, func(x, y float64) bool { return y <= maxY }, func(ax, ay, bx, by float64) (float64, float64) {
		t := (maxY - ay) / (by - ay)
		return ax + t*(bx-ax), maxY
	})

	if len(pts) < 6 {
		return 0
	}
	var sum float64
	n := len(pts) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[2*i]*pts[2*j+1] - pts[2*j]*pts[2*i+1]
	}
	return math.Abs(sum / 2)
}

// clipHalfPlane clips a flat XY polygon against one half-plane.
func clipHalfPlane(flat []float64, inside func(x, y float64) bool, intersect func(ax, ay, bx, by float64) (float64, float64)) []float64 {
	n := len(flat) / 2
	if n == 0 {
		return nil
	}
	out := make([]float64, 0, len(flat)+4)

	ax, ay := flat[2*(n-1)], flat[2*(n-1)+1]
	aIn := inside(ax, ay)
	for i := 0; i < n; i++ {
		bx, by := flat[2*i], flat[2*i+1]
		bIn := inside(bx, by)

		switch {
		case aIn && bIn:
			out = append(out, bx, by)
		case aIn && !bIn:
			ix, iy := intersect(ax, ay, bx, by)
			out = append(out, ix, iy)
		case !aIn && bIn:
			ix, iy := intersect(ax, ay, bx, by)
			out = append(out, ix, iy, bx, by)
		}

		ax, ay, aIn = bx, by, bIn
	}
	return out
}
