package table

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteXLSX writes rows to an xlsx workbook with one sheet, mirroring the
// CSV column order. Null means become empty cells.
func WriteXLSX(path string, rows []Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("zonal_means")
	if err != nil {
		return eris.Wrap(err, "table: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"seq", "mean", "year", "parish", "province", "canton"} {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Seq)
		if r.Mean != nil {
			row.AddCell().SetFloat(*r.Mean)
		} else {
			row.AddCell()
		}
		row.AddCell().SetInt(r.Year)
		row.AddCell().SetString(r.Parish)
		row.AddCell().SetString(r.Province)
		row.AddCell().SetString(r.Canton)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "table: save %s", path)
	}
	return nil
}
