package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/geoandes/landcover-cli/internal/fetch"
)

var fetchDir string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the configured datasets",
	Long:  "Downloads the yearly land-cover rasters and the parish polygon archive into the data directory, extracting ZIP archives.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := fetchDir
		if dir == "" {
			dir = cfg.Data.Dir
		}
		if len(cfg.Data.Datasets) == 0 {
			return eris.New("no datasets configured under data.datasets")
		}

		f := fetch.New(nil)
		return f.FetchAll(cmd.Context(), dir, cfg.Data.Datasets)
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "", "download directory (default from config)")
	rootCmd.AddCommand(fetchCmd)
}
