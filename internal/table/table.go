// Package table defines the combined zonal-statistics table schema and its
// CSV/XLSX serializations.
package table

import (
	"bytes"
	"io"
	"sort"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
)

// Row is one (polygon, year) observation. Seq is the polygon's 1-based
// position in the layer and is identical for the same polygon across all
// years, so rows can be joined across years by it. Mean is nullable: a
// polygon with no valid cells encodes as an empty CSV field.
type Row struct {
	Seq      int      `csv:"seq"`
	Mean     *float64 `csv:"mean"`
	Year     int      `csv:"year"`
	Parish   string   `csv:"parish"`
	Province string   `csv:"province"`
	Canton   string   `csv:"canton"`
}

// ColumnMap is a declarative attribute-schema transformation: source
// attribute names are renamed via Rename and names in Drop are discarded.
// Attributes neither renamed nor dropped pass through under their own name.
type ColumnMap struct {
	Rename map[string]string
	Drop   []string
}

// ParroquiaColumns is the mapping used for Ecuador's parish layer: the
// DPA level-hierarchy codes become human-readable names and the remaining
// administrative metadata is dropped.
func ParroquiaColumns() ColumnMap {
	return ColumnMap{
		Rename: map[string]string{
			"DPA_DESPAR": "parish",
			"DPA_DESPRO": "province",
			"DPA_DESCAN": "canton",
		},
		Drop: []string{
			"DPA_ANIO", "DPA_PARROQ", "DPA_CANTON", "DPA_PROVIN",
			"REI", "COD_REI", "Shape_Leng", "Shape_Area",
		},
	}
}

// Apply transforms one attribute map according to the column mapping.
func (m ColumnMap) Apply(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	for _, d := range m.Drop {
		delete(out, d)
	}
	for from, to := range m.Rename {
		if v, ok := out[from]; ok {
			delete(out, from)
			out[to] = v
		}
	}
	return out
}

// SortYearMajor orders rows by year, then by sequence number. Parallel
// accumulation completes years out of order; this restores the canonical
// layout.
func SortYearMajor(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Seq < rows[j].Seq
	})
}

// WriteCSV encodes rows as delimited text with a header row.
func WriteCSV(w io.Writer, rows []Row) error {
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "table: marshal csv")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "table: write csv")
	}
	return nil
}

// ReadCSV decodes a previously written combined table.
func ReadCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "table: read csv")
	}
	var rows []Row
	if err := csvutil.Unmarshal(bytes.TrimSpace(data), &rows); err != nil {
		return nil, eris.Wrap(err, "table: unmarshal csv")
	}
	return rows, nil
}
