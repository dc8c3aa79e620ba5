package vector

import (
	"github.com/rotisserie/eris"
	proj "github.com/twpayne/go-proj/v10"
	"go.uber.org/zap"
)

// Transformer converts a single coordinate pair between two fixed CRSs.
type Transformer interface {
	Transform(x, y float64) (float64, float64, error)
}

// TransformerFactory builds a Transformer for a CRS pair. The PROJ-backed
// factory is the production default; tests inject lightweight ones.
type TransformerFactory func(srcCRS, dstCRS string) (Transformer, error)

// projTransformer wraps a PROJ pipeline between two CRSs.
type projTransformer struct {
	pj *proj.PJ
}

// NewProjTransformer creates a PROJ-backed Transformer.
func NewProjTransformer(srcCRS, dstCRS string) (Transformer, error) {
	pj, err := proj.NewCRSToCRS(srcCRS, dstCRS, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: create transformation %s -> %s", srcCRS, dstCRS)
	}
	return &projTransformer{pj: pj}, nil
}

func (t *projTransformer) Transform(x, y float64) (float64, float64, error) {
	out, err := t.pj.Forward(proj.Coord{x, y, 0, 0})
	if err != nil {
		return 0, 0, eris.Wrap(err, "vector: transform coordinate")
	}
	return out.X(), out.Y(), nil
}

// Reproject transforms every feature geometry in place to dstCRS using a
// transformer from factory. Reprojection happens once for the whole layer,
// before any aggregation; a layer already in dstCRS is returned untouched.
// A layer with no CRS at all surfaces ErrNoCRS — callers decide the default
// via EnsureCRS first.
func Reproject(l *Layer, dstCRS string, factory TransformerFactory) error {
	if l.CRS == "" {
		return ErrNoCRS
	}
	if dstCRS == "" {
		return eris.Wrap(ErrNoCRS, "target")
	}
	if l.CRS == dstCRS {
		return nil
	}
	if factory == nil {
		factory = NewProjTransformer
	}

	tr, err := factory(l.CRS, dstCRS)
	if err != nil {
		return err
	}

	for i := range l.Features {
		flat := l.Features[i].Geom.FlatCoords()
		for j := 0; j < len(flat); j += 2 {
			x, y, err := tr.Transform(flat[j], flat[j+1])
			if err != nil {
				return eris.Wrapf(err, "vector: reproject feature %d", i)
			}
			flat[j], flat[j+1] = x, y
		}
	}

	zap.L().Debug("vector: layer reprojected",
		zap.String("from", l.CRS),
		zap.String("to", dstCRS),
		zap.Int("features", len(l.Features)),
	)
	l.CRS = dstCRS
	return nil
}
