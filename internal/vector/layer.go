// Package vector loads administrative polygon layers from shapefiles into
// go-geom geometries with their attribute tables, and aligns them to a
// target CRS.
package vector

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoCRS is returned when no CRS can be resolved for a layer.
var ErrNoCRS = eris.New("vector: no resolvable CRS")

// ErrInvalidGeometry is returned when a polygon cannot be repaired.
var ErrInvalidGeometry = eris.New("vector: invalid geometry")

// Feature is one polygon record: geometry plus its attribute columns.
type Feature struct {
	Geom  *geom.MultiPolygon
	Attrs map[string]string
}

// Layer is an ordered set of polygon features sharing one CRS. Feature
// order is the shapefile record order and is stable across loads; row
// sequence numbers downstream are derived from it.
type Layer struct {
	CRS      string
	Features []Feature
}

// LoadShapefile reads polygons and attributes from a shapefile. The CRS is
// taken from the .prj sidecar when present, otherwise left empty for the
// caller to default. DBF attribute values that are not valid UTF-8 are
// decoded as Latin-1, which covers the accented parish names in the
// Ecuadorian administrative layers.
func LoadShapefile(path string) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	layer := &Layer{CRS: readPRJ(path)}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}

		mp := polygonToGeom(poly)
		if mp == nil {
			skipped++
			continue
		}

		attrs := make(map[string]string, len(names))
		for i, name := range names {
			attrs[name] = decodeAttr(reader.Attribute(i))
		}

		layer.Features = append(layer.Features, Feature{Geom: mp, Attrs: attrs})
	}

	if skipped > 0 {
		zap.L().Debug("vector: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	if len(layer.Features) == 0 {
		return nil, eris.Errorf("vector: no polygon records in %s", path)
	}

	return layer, nil
}

// EnsureCRS assigns def when the layer carries no CRS of its own. The
// workshop layers ship without a .prj but are known unprojected lon/lat, so
// callers default them to EPSG:4326; layers whose true CRS is genuinely
// unknown will produce wrong geography silently.
func (l *Layer) EnsureCRS(def string) {
	if l.CRS == "" {
		l.CRS = def
	}
}

// Geoms returns the feature geometries in layer order.
func (l *Layer) Geoms() []*geom.MultiPolygon {
	out := make([]*geom.MultiPolygon, len(l.Features))
	for i, f := range l.Features {
		out[i] = f.Geom
	}
	return out
}

// decodeAttr trims DBF padding and re-decodes non-UTF-8 bytes as Latin-1.
func decodeAttr(raw string) string {
	v := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if utf8.ValidString(v) {
		return v
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().String(v)
	if err != nil {
		return v
	}
	return decoded
}

// readPRJ resolves the layer CRS from the .prj sidecar. Geographic WGS 84
// definitions map to EPSG:4326; any other projection is kept as raw WKT.
func readPRJ(shpPath string) string {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prjPath)
	if err != nil {
		return ""
	}
	wkt := strings.TrimSpace(string(data))
	if wkt == "" {
		return ""
	}
	upper := strings.ToUpper(wkt)
	if strings.HasPrefix(upper, "GEOGCS") && strings.Contains(upper, "WGS") && strings.Contains(upper, "84") {
		return "EPSG:4326"
	}
	return wkt
}

// polygonToGeom converts a shapefile polygon to a go-geom MultiPolygon.
// Shapefile ring order encodes nesting by winding: clockwise rings open a
// new shell, counter-clockwise rings are holes in the preceding shell.
func polygonToGeom(p *shp.Polygon) *geom.MultiPolygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		flat = closeRing(flat)
		if len(flat) < 8 {
			zap.L().Debug("vector: skipping degenerate ring", zap.Int32("part", i))
			continue
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		shell := signedRingArea(flat) < 0 // shapefile shells wind clockwise

		if shell || current == nil {
			poly := geom.NewPolygon(geom.XY)
			if err := poly.Push(ring); err != nil {
				zap.L().Debug("vector: skipping malformed shell", zap.Int32("part", i), zap.Error(err))
				continue
			}
			if err := mp.Push(poly); err != nil {
				zap.L().Debug("vector: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
				continue
			}
			current = mp.Polygon(mp.NumPolygons() - 1)
			continue
		}

		if err := current.Push(ring); err != nil {
			zap.L().Debug("vector: skipping malformed hole", zap.Int32("part", i), zap.Error(err))
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// closeRing appends the first vertex when a ring is left open.
func closeRing(flat []float64) []float64 {
	n := len(flat)
	if n < 4 {
		return flat
	}
	if flat[0] != flat[n-2] || flat[1] != flat[n-1] {
		flat = append(flat, flat[0], flat[1])
	}
	return flat
}

// signedRingArea is the shoelace area of a flat XY ring; counter-clockwise
// rings are positive.
func signedRingArea(flat []float64) float64 {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n-1; i++ {
		x0, y0 := flat[2*i], flat[2*i+1]
		x1, y1 := flat[2*i+2], flat[2*i+3]
		sum += x0*y1 - x1*y0
	}
	return sum / 2
}
