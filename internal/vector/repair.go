package vector

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// Repair validates every feature geometry in the layer and attempts an
// automatic fix before giving up: open rings are closed and degenerate
// rings (too few vertices or zero area) are dropped. A feature left with no
// valid shell after repair surfaces ErrInvalidGeometry, identifying the
// offending record by index.
func Repair(l *Layer) error {
	for i := range l.Features {
		repaired, err := repairMultiPolygon(l.Features[i].Geom)
		if err != nil {
			return eris.Wrapf(err, "feature %d", i)
		}
		l.Features[i].Geom = repaired
	}
	return nil
}

func repairMultiPolygon(mp *geom.MultiPolygon) (*geom.MultiPolygon, error) {
	if mp == nil || mp.NumPolygons() == 0 {
		return nil, ErrInvalidGeometry
	}

	out := geom.NewMultiPolygon(geom.XY)
	var dropped int

	for pi := 0; pi < mp.NumPolygons(); pi++ {
		poly := mp.Polygon(pi)
		fixed := geom.NewPolygon(geom.XY)

		for ri := 0; ri < poly.NumLinearRings(); ri++ {
			flat := closeRing(append([]float64(nil), poly.LinearRing(ri).FlatCoords()...))
			if len(flat) < 8 || math.Abs(signedRingArea(flat)) == 0 {
				// A degenerate shell invalidates the whole polygon part;
				// a degenerate hole is simply dropped.
				if ri == 0 {
					fixed = nil
					break
				}
				dropped++
				continue
			}
			if err := fixed.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
				return nil, eris.Wrap(ErrInvalidGeometry, err.Error())
			}
		}

		if fixed == nil || fixed.NumLinearRings() == 0 {
			dropped++
			continue
		}
		if err := out.Push(fixed); err != nil {
			return nil, eris.Wrap(ErrInvalidGeometry, err.Error())
		}
	}

	if dropped > 0 {
		zap.L().Debug("vector: dropped degenerate rings during repair", zap.Int("dropped", dropped))
	}
	if out.NumPolygons() == 0 {
		return nil, ErrInvalidGeometry
	}
	return out, nil
}
