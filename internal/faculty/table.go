package faculty

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Table is a column-oriented view of a Result for downstream analysis.
type Table struct {
	Columns []string
	Rows    [][]string
}

// AsTable converts r into rows of the fixed columns. Multi-valued fields are
// joined with ListSeparator.
func AsTable(r Result) Table {
	t := Table{
		Columns: append([]string(nil), Columns...),
		Rows:    make([][]string, 0, len(r)),
	}
	for _, rec := range r {
		t.Rows = append(t.Rows, []string{
			rec.Name,
			rec.College,
			rec.Email,
			rec.Subjects.String(),
			rec.ResearchTopics.String(),
		})
	}
	return t
}

// Column returns the values of the named column, or nil if there is no such column.
func (t Table) Column(name string) []string {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	out := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, row[idx])
	}
	return out
}

// Render pretty-prints the table to w. maxWidth caps each column's width;
// zero leaves columns unbounded.
func (t Table) Render(w io.Writer, maxWidth int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	if maxWidth > 0 {
		cfgs := make([]table.ColumnConfig, len(t.Columns))
		for i := range t.Columns {
			cfgs[i] = table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		}
		tw.SetColumnConfigs(cfgs)
	}

	for _, row := range t.Rows {
		r := make(table.Row, len(row))
		for i, v := range row {
			r[i] = v
		}
		tw.AppendRow(r)
	}
	tw.AppendFooter(table.Row{"records", len(t.Rows)})
	tw.Render()
}
