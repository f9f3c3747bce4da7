package faculty

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ExportXLSX writes r as a single "faculty" sheet with the same columns as the CSV.
func ExportXLSX(path string, r Result) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("faculty")
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	t := AsTable(r)
	addRow(sheet, t.Columns)
	for _, row := range t.Rows {
		addRow(sheet, row)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}
