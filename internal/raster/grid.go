// Package raster holds the in-memory raster grid model and the tiled
// reclassification pipeline that runs over it.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// DefaultNoData is the sentinel written for cells remapped to no-data.
const DefaultNoData = -9999

// Affine is a GDAL-style geotransform. For cell (col, row) the projected
// coordinates of the cell's upper-left corner are:
//
//	x = a[0] + col*a[1] + row*a[2]
//	y = a[3] + col*a[4] + row*a[5]
type Affine [6]float64

// Origin returns the x/y coordinates of the grid's upper-left corner.
func (a Affine) Origin() (x, y float64) {
	return a[0], a[3]
}

// CellSize returns the cell width and height. Height is typically negative
// for north-up rasters.
func (a Affine) CellSize() (w, h float64) {
	return a[1], a[5]
}

// Rotated reports whether the transform carries rotation/shear terms.
func (a Affine) Rotated() bool {
	return a[2] != 0 || a[4] != 0
}

// ShiftCols returns the transform of a grid whose first column was the
// receiver's column n.
func (a Affine) ShiftCols(n int) Affine {
	out := a
	out[0] += float64(n) * a[1]
	out[3] += float64(n) * a[4]
	return out
}

// Grid is a single-band raster held fully in memory: row-major cell values
// plus the transform and CRS that anchor them geographically. The transform
// and dimensions together determine the footprint of every cell.
type Grid struct {
	Width     int
	Height    int
	Transform Affine
	CRS       string
	NoData    float64
	Data      []float64
}

// New allocates a grid of the given shape with every cell set to nodata.
func New(width, height int, transform Affine, crs string, nodata float64) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, eris.Errorf("raster: invalid grid shape %dx%d", width, height)
	}
	data := make([]float64, width*height)
	if nodata != 0 {
		for i := range data {
			data[i] = nodata
		}
	}
	return &Grid{
		Width:     width,
		Height:    height,
		Transform: transform,
		CRS:       crs,
		NoData:    nodata,
		Data:      data,
	}, nil
}

// At returns the value of cell (col, row).
func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.Width+col]
}

// Set writes the value of cell (col, row).
func (g *Grid) Set(col, row int, v float64) {
	g.Data[row*g.Width+col] = v
}

// IsNoData reports whether v is the grid's no-data sentinel. NaN sentinels
// (common in float rasters) are handled too.
func (g *Grid) IsNoData(v float64) bool {
	if math.IsNaN(g.NoData) {
		return math.IsNaN(v)
	}
	return v == g.NoData
}

// Bounds returns the grid's geographic extent (minX, minY, maxX, maxY).
// Only north-up transforms are supported.
func (g *Grid) Bounds() (minX, minY, maxX, maxY float64, err error) {
	if g.Transform.Rotated() {
		return 0, 0, 0, 0, eris.New("raster: bounds of rotated grid")
	}
	x0, y0 := g.Transform.Origin()
	cw, ch := g.Transform.CellSize()
	x1 := x0 + float64(g.Width)*cw
	y1 := y0 + float64(g.Height)*ch
	return math.Min(x0, x1), math.Min(y0, y1), math.Max(x0, x1), math.Max(y0, y1), nil
}

// CellRect returns the geographic rectangle covered by cell (col, row),
// as (minX, minY, maxX, maxY). Only north-up transforms are supported.
func (g *Grid) CellRect(col, row int) (minX, minY, maxX, maxY float64) {
	x0, y0 := g.Transform.Origin()
	cw, ch := g.Transform.CellSize()
	xa := x0 + float64(col)*cw
	xb := xa + cw
	ya := y0 + float64(row)*ch
	yb := ya + ch
	return math.Min(xa, xb), math.Min(ya, yb), math.Max(xa, xb), math.Max(ya, yb)
}
