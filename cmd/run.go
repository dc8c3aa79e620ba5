package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandes/landcover-cli/internal/pipeline"
	"github.com/geoandes/landcover-cli/internal/raster"
	"github.com/geoandes/landcover-cli/internal/store"
	"github.com/geoandes/landcover-cli/internal/table"
	"github.com/geoandes/landcover-cli/internal/vector"
)

var (
	runYears    string
	runRasters  string
	runPolygons string
	runOut      string
	runXLSX     string
	runWorkers  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the multi-year accumulation pipeline",
	Long:  "Loads one raster per year, reclassifies it, computes coverage-weighted zonal means over the parish polygons, and writes the combined year-major table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		years, err := parseYears(runYears)
		if err != nil {
			return err
		}
		rule, err := ruleFromConfig(cfg.Pipeline)
		if err != nil {
			return err
		}

		rastersDir := runRasters
		if rastersDir == "" {
			rastersDir = cfg.Data.Dir
		}
		polygons := runPolygons
		if polygons == "" {
			polygons = cfg.Data.Polygons
		}
		workers := runWorkers
		if workers == 0 {
			workers = cfg.Pipeline.Workers
		}

		layer, err := vector.LoadShapefile(polygons)
		if err != nil {
			return eris.Wrap(err, "load polygons")
		}

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		loader := func(ctx context.Context, year int) (*raster.Grid, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path := filepath.Join(rastersDir, fmt.Sprintf(cfg.Data.RasterPattern, year))
			return raster.LoadGeoTIFF(path)
		}

		agg := &pipeline.Aggregator{Transformer: vector.NewProjTransformer}
		opts := pipeline.AccumulateOptions{
			Years:    years,
			Rule:     rule,
			TileSize: cfg.Pipeline.TileSize,
			Workers:  workers,
			Aggregate: pipeline.AggregateOptions{
				CropFromCol: cfg.Pipeline.CropFromCol,
				CropToCol:   cfg.Pipeline.CropToCol,
				PolygonCRS:  cfg.Pipeline.PolygonCRS,
				Columns:     table.ParroquiaColumns(),
			},
		}

		start := time.Now()
		rows, runErr := pipeline.Accumulate(ctx, loader, layer, agg, opts)

		rec := store.RunRecord{
			Years:      runYears,
			Polygons:   len(layer.Features),
			Rows:       len(rows),
			Output:     runOut,
			Status:     store.RunStatusCompleted,
			DurationMs: int(time.Since(start).Milliseconds()),
		}
		if runErr != nil {
			rec.Status = store.RunStatusFailed
			rec.Error = runErr.Error()
		}
		if err := st.RecordRun(ctx, rec); err != nil {
			zap.L().Warn("record run failed", zap.Error(err))
		}
		if runErr != nil {
			return eris.Wrap(runErr, "accumulate")
		}

		out, err := os.Create(runOut)
		if err != nil {
			return eris.Wrapf(err, "create %s", runOut)
		}
		defer out.Close() //nolint:errcheck
		if err := table.WriteCSV(out, rows); err != nil {
			return eris.Wrap(err, "write csv")
		}

		if runXLSX != "" {
			if err := table.WriteXLSX(runXLSX, rows); err != nil {
				return eris.Wrap(err, "write xlsx")
			}
		}

		zap.L().Info("run complete",
			zap.Ints("years", years),
			zap.Int("polygons", len(layer.Features)),
			zap.Int("rows", len(rows)),
			zap.String("output", runOut),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runYears, "years", "", "years to accumulate: 2020, 2018-2022, or 2018,2020 (required)")
	runCmd.Flags().StringVar(&runRasters, "rasters-dir", "", "directory holding the yearly rasters (default from config)")
	runCmd.Flags().StringVar(&runPolygons, "polygons", "", "parish polygon shapefile (default from config)")
	runCmd.Flags().StringVar(&runOut, "out", "zonal_means.csv", "combined CSV output path")
	runCmd.Flags().StringVar(&runXLSX, "xlsx", "", "also write an XLSX copy to this path")
	runCmd.Flags().IntVar(&runWorkers, "parallel", 0, "process years concurrently with this many workers")
	_ = runCmd.MarkFlagRequired("years")
	rootCmd.AddCommand(runCmd)
}
