package raster

import (
	"fmt"
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var registerOnce sync.Once

// commonEPSG lists the codes probed when matching a raster's projection back
// to an EPSG identifier. 4326 covers the workshop datasets; the UTM zones
// cover projected Ecuadorian sources.
var commonEPSG = []int{4326, 3857, 32717, 32718}

// LoadGeoTIFF reads band 1 of a GDAL-readable raster into a Grid. The whole
// band is read at once; tiling happens downstream in Reclassify.
func LoadGeoTIFF(path string) (*Grid, error) {
	registerOnce.Do(godal.RegisterAll)

	ds, err := godal.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = ds.Close() }()

	st := ds.Structure()
	if st.NrBands < 1 {
		return nil, eris.Errorf("raster: %s has no bands", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read geotransform of %s", path)
	}

	band := ds.Bands()[0]
	nodata, hasNoData := band.NoData()
	if !hasNoData {
		nodata = DefaultNoData
	}

	g, err := New(st.SizeX, st.SizeY, Affine(gt), crsString(ds), nodata)
	if err != nil {
		return nil, err
	}
	if err := band.Read(0, 0, g.Data, st.SizeX, st.SizeY); err != nil {
		return nil, eris.Wrapf(err, "raster: read band 1 of %s", path)
	}

	zap.L().Debug("raster: loaded",
		zap.String("path", path),
		zap.Int("width", g.Width),
		zap.Int("height", g.Height),
		zap.String("crs", g.CRS),
	)
	return g, nil
}

// SaveGeoTIFF writes a Grid to a single-band Float64 GeoTIFF.
func SaveGeoTIFF(path string, g *Grid) error {
	registerOnce.Do(godal.RegisterAll)

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, g.Width, g.Height)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	defer func() { _ = ds.Close() }()

	if err := ds.SetGeoTransform([6]float64(g.Transform)); err != nil {
		return eris.Wrapf(err, "raster: set geotransform of %s", path)
	}
	if sr := spatialRef(g.CRS); sr != nil {
		if err := ds.SetSpatialRef(sr); err != nil {
			sr.Close()
			return eris.Wrapf(err, "raster: set projection of %s", path)
		}
		sr.Close()
	}

	band := ds.Bands()[0]
	if err := band.SetNoData(g.NoData); err != nil {
		return eris.Wrapf(err, "raster: set nodata of %s", path)
	}
	if err := band.Write(0, 0, g.Data, g.Width, g.Height); err != nil {
		return eris.Wrapf(err, "raster: write band 1 of %s", path)
	}

	zap.L().Debug("raster: saved", zap.String("path", path), zap.Int("width", g.Width), zap.Int("height", g.Height))
	return nil
}

// spatialRef builds a SpatialRef from an "EPSG:n" code or WKT string.
// Returns nil if the CRS is empty or unparseable; the caller owns Close.
func spatialRef(crs string) *godal.SpatialRef {
	if crs == "" {
		return nil
	}
	var code int
	if _, err := fmt.Sscanf(crs, "EPSG:%d", &code); err == nil {
		if sr, err := godal.NewSpatialRefFromEPSG(code); err == nil {
			return sr
		}
		return nil
	}
	sr, err := godal.NewSpatialRefFromWKT(crs)
	if err != nil {
		return nil
	}
	return sr
}

// crsString resolves the dataset's spatial reference to an "EPSG:n" code
// when it matches a known one, falling back to the raw projection WKT.
func crsString(ds *godal.Dataset) string {
	sr := ds.SpatialRef()
	if sr == nil {
		return ""
	}
	for _, code := range commonEPSG {
		ref, err := godal.NewSpatialRefFromEPSG(code)
		if err != nil {
			continue
		}
		same := sr.IsSame(ref)
		ref.Close()
		if same {
			return fmt.Sprintf("EPSG:%d", code)
		}
	}
	return ds.Projection()
}
