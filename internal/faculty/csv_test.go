package faculty

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func sampleResult() Result {
	return Result{
		{
			Name:    "Dr. Nasrin Akhter",
			College: "George Mason University",
			Email:   "nasrinak@buffalo.edu",
			Subjects: List{
				"CSE 116—Introduction to Computer Science II (Spring 2021)",
				"CSE 191—Introduction to Discrete Structures (Fall 2023, Summer 2023)",
			},
			ResearchTopics: List{"Computer science education"},
		},
		{
			Name:           "Jane Roe",
			College:        "MIT",
			Subjects:       List{},
			ResearchTopics: List{"Networks", "Systems, \"distributed\""},
		},
	}
}

func TestWriteCSV_Header(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got := buf.String(); got != "name,college,email,subjects,research_topics\n" {
		t.Fatalf("unexpected header: %q", got)
	}
}

// TestCSVRoundTrip verifies values survive export and re-read, modulo the
// list join on the separator.
func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "faculty.csv")
	want := sampleResult()
	if err := ExportCSV(path, want); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if lines := strings.Count(string(b), "\n"); lines != len(want)+1 {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want)+1, lines, b)
	}

	got, err := ReadCSV(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExportCSV_UnwritablePath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing-dir", "faculty.csv")
	if err := ExportCSV(path, sampleResult()); err == nil {
		t.Fatalf("expected error for unwritable path")
	}
}

func TestExportCSV_Overwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "faculty.csv")
	if err := os.WriteFile(path, []byte("stale content that is longer than the header\nx\ny\nz\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ExportCSV(path, nil); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "name,college,email,subjects,research_topics\n" {
		t.Fatalf("file not truncated: %q", b)
	}
}

func TestReadCSV_Empty(t *testing.T) {
	t.Parallel()

	got, err := ReadCSV(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

// Items are not escaped, so a ';' inside an item splits it on the way back.
func TestCSVRoundTrip_SeparatorInItem(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	in := Result{{Name: "A", Subjects: List{"CSE 1; lab", "CSE 2"}, ResearchTopics: List{}}}
	if err := WriteCSV(&buf, in); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if diff := cmp.Diff(List{"CSE 1", "lab", "CSE 2"}, got[0].Subjects); diff != "" {
		t.Fatalf("subjects mismatch (-want +got):\n%s", diff)
	}
}
