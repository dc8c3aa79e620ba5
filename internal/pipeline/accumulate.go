package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geoandes/landcover-cli/internal/raster"
	"github.com/geoandes/landcover-cli/internal/table"
	"github.com/geoandes/landcover-cli/internal/vector"
)

// Loader loads the source raster for one year.
type Loader func(ctx context.Context, year int) (*raster.Grid, error)

// AccumulateOptions configures a multi-year run.
type AccumulateOptions struct {
	Years     []int
	Rule      raster.Rule
	TileSize  int
	Workers   int // parallel years; <= 1 runs sequentially
	Aggregate AggregateOptions
}

// Accumulate runs the reclassify/aggregate pipeline for every year in order
// and concatenates the per-year rows into one year-major table, each row
// stamped with its year. The polygon layer is aligned once, against the
// first year's raster, and shared by every year after that. Any failing
// year aborts the whole run; no partial table is ever returned.
func Accumulate(ctx context.Context, load Loader, layer *vector.Layer, agg *Aggregator, opts AccumulateOptions) ([]table.Row, error) {
	if agg == nil {
		agg = &Aggregator{}
	}
	if len(opts.Years) == 0 {
		return nil, eris.New("pipeline: no years to accumulate")
	}
	if opts.TileSize <= 0 {
		return nil, eris.Wrapf(raster.ErrBadTileSize, "got %d", opts.TileSize)
	}

	log := zap.L().With(zap.String("component", "pipeline.accumulate"))
	start := time.Now()

	// The first year is always processed inline: it fixes the target CRS
	// the shared layer is aligned to.
	firstRows, err := processYear(ctx, load, layer, agg, opts, opts.Years[0], true)
	if err != nil {
		return nil, err
	}

	byYear := make(map[int][]table.Row, len(opts.Years))
	byYear[opts.Years[0]] = firstRows

	rest := opts.Years[1:]
	if opts.Workers > 1 && len(rest) > 0 {
		eg, gCtx := errgroup.WithContext(ctx)
		eg.SetLimit(opts.Workers)
		results := make([][]table.Row, len(rest))
		for i, year := range rest {
			i, year := i, year
			eg.Go(func() error {
				rows, err := processYear(gCtx, load, layer, agg, opts, year, false)
				if err != nil {
					return err
				}
				results[i] = rows
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		for i, year := range rest {
			byYear[year] = results[i]
		}
	} else {
		for _, year := range rest {
			rows, err := processYear(ctx, load, layer, agg, opts, year, false)
			if err != nil {
				return nil, err
			}
			byYear[year] = rows
		}
	}

	// Completion order is not guaranteed under workers; reassemble in the
	// given year sequence.
	out := make([]table.Row, 0, len(opts.Years)*len(layer.Features))
	for _, year := range opts.Years {
		out = append(out, byYear[year]...)
	}
	table.SortYearMajor(out)

	log.Info("accumulation complete",
		zap.Ints("years", opts.Years),
		zap.Int("polygons", len(layer.Features)),
		zap.Int("rows", len(out)),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// processYear loads, reclassifies and aggregates a single year's raster,
// stamping the year on every row. When align is set the shared polygon
// layer is aligned to this raster's CRS first.
func processYear(ctx context.Context, load Loader, layer *vector.Layer, agg *Aggregator, opts AccumulateOptions, year int, align bool) ([]table.Row, error) {
	g, err := load(ctx, year)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load raster for year %d", year)
	}

	reclassified, err := raster.ReclassifyParallel(ctx, g, opts.Rule, opts.TileSize, opts.Workers)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: reclassify year %d", year)
	}

	if align {
		if err := agg.Align(layer, reclassified.CRS, opts.Aggregate.PolygonCRS); err != nil {
			return nil, eris.Wrapf(err, "pipeline: align polygons for year %d", year)
		}
	}

	rows, err := agg.Aggregate(reclassified, layer, opts.Aggregate)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: aggregate year %d", year)
	}
	for i := range rows {
		rows[i].Year = year
	}
	return rows, nil
}
