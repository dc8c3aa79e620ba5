package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandes/landcover-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "landcover",
	Short: "Ecuador land-cover zonal statistics pipeline",
	Long:  "Reclassifies yearly land-cover rasters, computes coverage-weighted zonal means per parish, and accumulates the results across years into one combined table.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
