package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandes/landcover-cli/internal/raster"
)

var (
	reclassifyIn  string
	reclassifyOut string
)

var reclassifyCmd = &cobra.Command{
	Use:   "reclassify",
	Short: "Reclassify a single raster",
	Long:  "Applies the configured code remapping to one raster, tile by tile, and writes the result as a new GeoTIFF.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rule, err := ruleFromConfig(cfg.Pipeline)
		if err != nil {
			return err
		}

		g, err := raster.LoadGeoTIFF(reclassifyIn)
		if err != nil {
			return err
		}

		out, err := raster.ReclassifyParallel(ctx, g, rule, cfg.Pipeline.TileSize, cfg.Pipeline.Workers)
		if err != nil {
			return eris.Wrap(err, "reclassify")
		}

		if err := raster.SaveGeoTIFF(reclassifyOut, out); err != nil {
			return err
		}

		zap.L().Info("raster reclassified",
			zap.String("in", reclassifyIn),
			zap.String("out", reclassifyOut),
			zap.Int("tile_size", cfg.Pipeline.TileSize),
		)
		return nil
	},
}

func init() {
	reclassifyCmd.Flags().StringVar(&reclassifyIn, "in", "", "input raster path (required)")
	reclassifyCmd.Flags().StringVar(&reclassifyOut, "out", "", "output GeoTIFF path (required)")
	_ = reclassifyCmd.MarkFlagRequired("in")
	_ = reclassifyCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(reclassifyCmd)
}
