package raster

import "github.com/rotisserie/eris"

// CropColumns returns a copy of g keeping columns [fromCol, toCol) and
// shifting the transform extent so every kept cell stays anchored to the
// same geography. A toCol of 0 means the grid's full width.
//
// The Ecuador land-cover rasters carry an invalid strip that the workshop
// discards at a fixed column boundary before aggregation; the boundary is a
// dataset property, so it is always passed in rather than inferred.
func CropColumns(g *Grid, fromCol, toCol int) (*Grid, error) {
	if toCol == 0 {
		toCol = g.Width
	}
	if fromCol < 0 || toCol > g.Width || fromCol >= toCol {
		return nil, eris.Errorf("raster: crop columns [%d, %d) out of range for width %d", fromCol, toCol, g.Width)
	}
	if fromCol == 0 && toCol == g.Width {
		return g, nil
	}

	width := toCol - fromCol
	out, err := New(width, g.Height, g.Transform.ShiftCols(fromCol), g.CRS, g.NoData)
	if err != nil {
		return nil, err
	}
	for row := 0; row < g.Height; row++ {
		src := g.Data[row*g.Width+fromCol : row*g.Width+toCol]
		copy(out.Data[row*width:(row+1)*width], src)
	}
	return out, nil
}
