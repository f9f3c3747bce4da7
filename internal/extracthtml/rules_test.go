package extracthtml

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadRules_JSON(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "rules.json", `{
		"record_selector": ".member",
		"mappings": [{"selector":"h3","extract":"text","field":"name"}]
	}`)

	r, err := LoadRules(p)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if r.RecordSelector != ".member" || len(r.Mappings) != 1 {
		t.Fatalf("unexpected rules: %#v", r)
	}
}

func TestLoadRules_YAML(t *testing.T) {
	t.Parallel()

	p := writeFile(t, "rules.yaml", `
record_selector: .member
mappings:
  - selector: h3
    extract: text
    field: name
  - selector: .topics
    extract: text
    field: research_topics
    split: ";"
profile:
  url_field: profile_url
  rewrite:
    match: '\.html$'
    replace: .teaching.html
  mappings:
    - selector: li
      extract: text
      field: subjects
      all: true
paging:
  count_selector: "#count"
  per_page: 25
`)

	r, err := LoadRules(p)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if r.Profile == nil || r.Profile.Rewrite == nil || r.Profile.Rewrite.Replace != ".teaching.html" {
		t.Fatalf("profile not decoded: %#v", r.Profile)
	}
	if r.Paging == nil || r.Paging.PerPage != 25 {
		t.Fatalf("paging not decoded: %#v", r.Paging)
	}
	if r.Mappings[1].Split != ";" {
		t.Fatalf("split not decoded: %#v", r.Mappings[1])
	}
}

// TestLoadRules_Rejects verifies broken rules fail at load time instead of
// silently producing empty records.
func TestLoadRules_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"no_mappings", `{"record_selector":".m","mappings":[]}`},
		{"no_record_selector", `{"mappings":[{"selector":"h3","extract":"text","field":"name"}]}`},
		{"bad_regex", `{"record_selector":".m","mappings":[{"selector":"h3","extract":"text","field":"name","match":"(["}]}`},
		{"profile_without_url_field", `{"record_selector":".m","mappings":[{"selector":"h3","extract":"text","field":"name"}],"profile":{"mappings":[{"selector":"li","extract":"text","field":"subjects"}]}}`},
		{"paging_without_per_page", `{"record_selector":".m","mappings":[{"selector":"h3","extract":"text","field":"name"}],"paging":{"count_selector":"#c"}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadRules(writeFile(t, "rules.json", tc.body))
			if !errors.Is(err, ErrInvalidRules) {
				t.Fatalf("expected ErrInvalidRules, got %v", err)
			}
		})
	}
}

func TestLoadRules_Missing(t *testing.T) {
	t.Parallel()

	if _, err := LoadRules(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefaultFacultyRules_Compile(t *testing.T) {
	t.Parallel()

	c, err := Compile(DefaultFacultyRules())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !c.HasProfile() || c.HasPaging() {
		t.Fatalf("unexpected capabilities: profile=%v paging=%v", c.HasProfile(), c.HasPaging())
	}
}
