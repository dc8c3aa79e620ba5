package raster

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrBadTileSize is returned when a non-positive tile size is requested.
var ErrBadTileSize = eris.New("raster: tile size must be positive")

// Rule is a total value remapping over a raster's code domain. Codes in
// NoData become the output grid's no-data sentinel, codes in Replace are
// rewritten to the mapped value, and every other code passes through
// unchanged.
type Rule struct {
	NoData  []float64
	Replace map[float64]float64
}

// LandCoverRule is the remapping used by the Ecuador land-cover datasets:
// classes 0, 3 and 4 are dropped to no-data and class 2 collapses to 0.
func LandCoverRule() Rule {
	return Rule{
		NoData:  []float64{0, 3, 4},
		Replace: map[float64]float64{2: 0},
	}
}

// Apply remaps a single cell value, substituting nodata for dropped codes.
func (r Rule) Apply(v, nodata float64) float64 {
	for _, c := range r.NoData {
		if v == c {
			return nodata
		}
	}
	if out, ok := r.Replace[v]; ok {
		return out
	}
	return v
}

// tile is a clipped sub-rectangle of a grid's index space.
type tile struct {
	col, row int // upper-left cell
	w, h     int
}

// tiles partitions a width x height index space into edge-clipped tiles of
// at most size cells per side.
func tiles(width, height, size int) []tile {
	var out []tile
	for row := 0; row < height; row += size {
		h := size
		if row+h > height {
			h = height - row
		}
		for col := 0; col < width; col += size {
			w := size
			if col+w > width {
				w = width - col
			}
			out = append(out, tile{col: col, row: row, w: w, h: h})
		}
	}
	return out
}

// Reclassify applies rule to every cell of g, reading and writing in tiles
// of at most tileSize cells per side to bound peak working-set size. The
// output grid has identical dimensions, transform and CRS; its no-data
// sentinel is DefaultNoData unless the input already declares one. Output is
// independent of tileSize: any positive value yields identical cells.
func Reclassify(g *Grid, rule Rule, tileSize int) (*Grid, error) {
	return reclassify(context.Background(), g, rule, tileSize, 1)
}

// ReclassifyParallel is Reclassify with tiles fanned out across workers.
// Tiles read the source and write disjoint regions of the output, so no
// locking is needed; the first tile error cancels the rest and no grid is
// returned.
func ReclassifyParallel(ctx context.Context, g *Grid, rule Rule, tileSize, workers int) (*Grid, error) {
	return reclassify(ctx, g, rule, tileSize, workers)
}

func reclassify(ctx context.Context, g *Grid, rule Rule, tileSize, workers int) (*Grid, error) {
	if tileSize <= 0 {
		return nil, eris.Wrapf(ErrBadTileSize, "got %d", tileSize)
	}
	if workers <= 0 {
		workers = 1
	}

	nodata := g.NoData
	if nodata == 0 {
		nodata = DefaultNoData
	}

	out, err := New(g.Width, g.Height, g.Transform, g.CRS, nodata)
	if err != nil {
		return nil, err
	}

	parts := tiles(g.Width, g.Height, tileSize)

	if workers == 1 {
		for _, t := range parts {
			reclassifyTile(g, out, rule, t, nodata)
		}
		return out, nil
	}

	eg, _ := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, t := range parts {
		t := t
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "raster: reclassify canceled")
			}
			reclassifyTile(g, out, rule, t, nodata)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("raster: reclassified",
		zap.Int("tiles", len(parts)),
		zap.Int("tile_size", tileSize),
		zap.Int("workers", workers),
	)
	return out, nil
}

// reclassifyTile remaps one tile's cells into the matching region of out.
func reclassifyTile(g, out *Grid, rule Rule, t tile, nodata float64) {
	for row := t.row; row < t.row+t.h; row++ {
		base := row * g.Width
		for col := t.col; col < t.col+t.w; col++ {
			v := g.Data[base+col]
			if g.IsNoData(v) {
				out.Data[base+col] = nodata
				continue
			}
			out.Data[base+col] = rule.Apply(v, nodata)
		}
	}
}
