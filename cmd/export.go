package main

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandes/landcover-cli/internal/store"
	"github.com/geoandes/landcover-cli/internal/table"
)

var (
	exportCSV   string
	exportTable string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a combined table to PostGIS",
	Long:  "Reads a previously produced combined CSV and bulk-copies its rows into a PostGIS table.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.Export.DatabaseURL == "" {
			return eris.New("export database URL is required (LANDCOVER_EXPORT_DATABASE_URL)")
		}
		tableName := exportTable
		if tableName == "" {
			tableName = cfg.Export.Table
		}

		f, err := os.Open(exportCSV)
		if err != nil {
			return eris.Wrapf(err, "open %s", exportCSV)
		}
		defer f.Close() //nolint:errcheck

		rows, err := table.ReadCSV(f)
		if err != nil {
			return eris.Wrap(err, "read csv")
		}

		pool, err := pgxpool.New(ctx, cfg.Export.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "connect to export database")
		}
		defer pool.Close()

		n, err := store.ExportRows(ctx, pool, tableName, rows)
		if err != nil {
			return eris.Wrap(err, "export rows")
		}

		zap.L().Info("export complete",
			zap.String("table", tableName),
			zap.Int64("rows", n),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCSV, "csv", "", "combined CSV to export (required)")
	exportCmd.Flags().StringVar(&exportTable, "table", "", "destination table name (default from config)")
	_ = exportCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(exportCmd)
}
