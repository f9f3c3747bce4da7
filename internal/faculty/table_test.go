package faculty

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tealeg/xlsx/v2"
)

func TestAsTable(t *testing.T) {
	t.Parallel()

	tbl := AsTable(sampleResult())

	if diff := cmp.Diff(Columns, tbl.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if got := tbl.Rows[1][4]; got != `Networks; Systems, "distributed"` {
		t.Fatalf("unexpected joined research cell: %q", got)
	}
	if diff := cmp.Diff([]string{"nasrinak@buffalo.edu", ""}, tbl.Column(FieldEmail)); diff != "" {
		t.Fatalf("email column mismatch (-want +got):\n%s", diff)
	}
	if tbl.Column("profile") != nil {
		t.Fatalf("unknown column should be nil")
	}
}

func TestTableRender(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	AsTable(sampleResult()).Render(&buf, 40)

	out := buf.String()
	for _, want := range []string{"NAME", "RESEARCH_TOPICS", "Jane Roe", "RECORDS"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render output missing %q:\n%s", want, out)
		}
	}
}

func TestExportXLSX(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "faculty.xlsx")
	if err := ExportXLSX(path, sampleResult()); err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	sheet, ok := f.Sheet["faculty"]
	if !ok {
		t.Fatalf("missing faculty sheet")
	}
	if len(sheet.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(sheet.Rows))
	}
	if got := sheet.Rows[1].Cells[0].String(); got != "Dr. Nasrin Akhter" {
		t.Fatalf("unexpected first cell: %q", got)
	}
}
