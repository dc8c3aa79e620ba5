// Package pipeline orchestrates the land-cover workflow: reclassified
// rasters are intersected with the administrative polygon layer and the
// per-polygon means are accumulated across years into one combined table.
package pipeline

import (
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/geoandes/landcover-cli/internal/raster"
	"github.com/geoandes/landcover-cli/internal/table"
	"github.com/geoandes/landcover-cli/internal/vector"
	"github.com/geoandes/landcover-cli/internal/zonal"
)

// ErrCRSMismatch is returned when a raster reaches the aggregator in a CRS
// the polygon layer was not aligned to.
var ErrCRSMismatch = eris.New("pipeline: raster and polygon CRS differ")

// ZonalFunc is the zonal-statistics collaborator: one nullable mean per
// polygon, aligned by polygon order.
type ZonalFunc func(g *raster.Grid, polys []*geom.MultiPolygon) ([]*float64, error)

// AggregateOptions configures a single aggregation pass.
type AggregateOptions struct {
	// CropFromCol/CropToCol select the raster column range used for
	// aggregation (see raster.CropColumns). Zero values mean no crop.
	CropFromCol int
	CropToCol   int

	// PolygonCRS is assigned to layers that carry no CRS of their own
	// before reprojection. Defaults to EPSG:4326.
	PolygonCRS string

	// Columns declares the attribute rename/drop mapping applied to
	// polygon attributes on their way into the output table.
	Columns table.ColumnMap
}

// Aggregator intersects rasters with a polygon layer. The geometric work is
// delegated to the zonal collaborator; the aggregator owns CRS alignment,
// cropping, and column shaping.
type Aggregator struct {
	// Zonal computes the per-polygon means. Defaults to zonal.Mean.
	Zonal ZonalFunc

	// Transformer builds coordinate transformations for layer alignment.
	// Defaults to the PROJ-backed factory.
	Transformer vector.TransformerFactory
}

// Align prepares the polygon layer for aggregation against rasters in
// targetCRS: a missing layer CRS is defaulted, geometries are repaired, and
// the whole layer is reprojected once. Alignment happens a single time per
// run, not per year.
func (a *Aggregator) Align(layer *vector.Layer, targetCRS, defaultCRS string) error {
	if defaultCRS == "" {
		defaultCRS = "EPSG:4326"
	}
	layer.EnsureCRS(defaultCRS)

	if err := vector.Repair(layer); err != nil {
		return err
	}
	return vector.Reproject(layer, targetCRS, a.Transformer)
}

// Aggregate computes one table row per polygon from the given raster. The
// layer must already be aligned to the raster's CRS via Align. Sequence
// numbers are the 1-based polygon positions; the Year column is left for
// the accumulator to stamp.
func (a *Aggregator) Aggregate(g *raster.Grid, layer *vector.Layer, opts AggregateOptions) ([]table.Row, error) {
	if g.CRS == "" || layer.CRS == "" {
		return nil, vector.ErrNoCRS
	}
	if g.CRS != layer.CRS {
		return nil, eris.Wrapf(ErrCRSMismatch, "raster %s, polygons %s", g.CRS, layer.CRS)
	}

	region, err := raster.CropColumns(g, opts.CropFromCol, opts.CropToCol)
	if err != nil {
		return nil, err
	}

	zonalFn := a.Zonal
	if zonalFn == nil {
		zonalFn = zonal.Mean
	}
	means, err := zonalFn(region, layer.Geoms())
	if err != nil {
		return nil, err
	}
	if len(means) != len(layer.Features) {
		return nil, eris.Errorf("pipeline: zonal collaborator returned %d values for %d polygons", len(means), len(layer.Features))
	}

	rows := make([]table.Row, len(layer.Features))
	for i, f := range layer.Features {
		attrs := opts.Columns.Apply(f.Attrs)
		rows[i] = table.Row{
			Seq:      i + 1,
			Mean:     means[i],
			Parish:   attrs["parish"],
			Province: attrs["province"],
			Canton:   attrs["canton"],
		}
	}

	zap.L().Debug("pipeline: aggregated raster",
		zap.Int("polygons", len(rows)),
		zap.Int("crop_from_col", opts.CropFromCol),
		zap.Int("crop_to_col", opts.CropToCol),
	)
	return rows, nil
}
