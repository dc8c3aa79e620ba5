package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/geoandes/landcover-cli/internal/spatial"
	"github.com/geoandes/landcover-cli/internal/table"
	"github.com/geoandes/landcover-cli/internal/vector"
)

var (
	moranCSV      string
	moranPolygons string
	moranYear     int
)

var moranCmd = &cobra.Command{
	Use:   "moran",
	Short: "Compute Moran's I for one year of zonal means",
	Long:  "Builds queen-contiguity weights over the parish polygons and measures the spatial autocorrelation of that year's zonal means.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(moranCSV)
		if err != nil {
			return eris.Wrapf(err, "open %s", moranCSV)
		}
		defer f.Close() //nolint:errcheck

		rows, err := table.ReadCSV(f)
		if err != nil {
			return eris.Wrap(err, "read csv")
		}

		polygons := moranPolygons
		if polygons == "" {
			polygons = cfg.Data.Polygons
		}
		layer, err := vector.LoadShapefile(polygons)
		if err != nil {
			return eris.Wrap(err, "load polygons")
		}

		values, valid, err := yearValues(rows, moranYear, len(layer.Features))
		if err != nil {
			return err
		}

		w := spatial.Queen(layer)
		i, err := spatial.MoranI(values, valid, w)
		if err != nil {
			return eris.Wrap(err, "moran")
		}

		fmt.Printf("Moran's I (%d): %.6f\n", moranYear, i)
		return nil
	},
}

// yearValues pulls one year's means out of a combined table, ordered by
// sequence number so values line up with the polygon layer.
func yearValues(rows []table.Row, year, polygons int) ([]float64, []bool, error) {
	values := make([]float64, polygons)
	valid := make([]bool, polygons)
	found := 0

	for _, r := range rows {
		if r.Year != year {
			continue
		}
		if r.Seq < 1 || r.Seq > polygons {
			return nil, nil, eris.Errorf("row seq %d outside polygon range 1..%d", r.Seq, polygons)
		}
		found++
		if r.Mean != nil {
			values[r.Seq-1] = *r.Mean
			valid[r.Seq-1] = true
		}
	}
	if found == 0 {
		return nil, nil, eris.Errorf("no rows for year %d", year)
	}
	if found != polygons {
		return nil, nil, eris.Errorf("year %d has %d rows but the layer has %d polygons", year, found, polygons)
	}
	return values, valid, nil
}

func init() {
	moranCmd.Flags().StringVar(&moranCSV, "csv", "", "combined CSV with zonal means (required)")
	moranCmd.Flags().StringVar(&moranPolygons, "polygons", "", "parish polygon shapefile (default from config)")
	moranCmd.Flags().IntVar(&moranYear, "year", 0, "year to analyze (required)")
	_ = moranCmd.MarkFlagRequired("csv")
	_ = moranCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(moranCmd)
}
