package extracthtml

import (
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Sites use spaces as thousand separators and wrap counts in parentheses.
func TestParseCountAny(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{"(1 096 ...)", 1096, true},
		{"51", 51, true},
		{"no digits", 0, false},
		{"", 0, false},
		{42, 0, false},
	}

	for _, tt := range tests {
		got, ok, err := ParseCountAny(tt.in)
		if err != nil {
			t.Fatalf("ParseCountAny(%v): %v", tt.in, err)
		}
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("ParseCountAny(%v): want (%d,%v) got (%d,%v)", tt.in, tt.want, tt.wantOK, got, ok)
		}
	}
}

func TestResolveHref(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://engineering.buffalo.edu/cse/people/full-time.html")
	if got := ResolveHref(base, "/cse/profiles/a.html"); got != "https://engineering.buffalo.edu/cse/profiles/a.html" {
		t.Fatalf("unexpected resolved url: %q", got)
	}
	if got := ResolveHref(nil, "/x"); got != "/x" {
		t.Fatalf("nil base: %q", got)
	}
}

func TestPagesFromCount(t *testing.T) {
	t.Parallel()

	got := PagesFromCount("https://example.com/list/", 51, 25, "")
	want := []string{"https://example.com/list", "https://example.com/list/2", "https://example.com/list/3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}

	got = PagesFromCount("https://example.com/list", 26, 25, "%s?page=%d")
	want = []string{"https://example.com/list", "https://example.com/list?page=2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("query pages mismatch (-want +got):\n%s", diff)
	}

	if got := PagesFromCount("https://example.com/list", 0, 25, ""); got != nil {
		t.Fatalf("count 0 should yield no pages, got %v", got)
	}
}

func TestExpandLetters(t *testing.T) {
	t.Parallel()

	got, err := ExpandLetters("https://example.com/dir?dept=cse", "", "a-c, X ,B")
	if err != nil {
		t.Fatalf("ExpandLetters: %v", err)
	}
	want := []string{
		"https://example.com/dir?dept=cse&letter=A",
		"https://example.com/dir?dept=cse&letter=B",
		"https://example.com/dir?dept=cse&letter=C",
		"https://example.com/dir?dept=cse&letter=X",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("letters mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", "Z-A", "AB", "1"} {
		if _, err := ExpandLetters("https://example.com/dir", "letter", bad); err == nil {
			t.Fatalf("ExpandLetters(%q): expected error", bad)
		}
	}
}

func TestDiscoverPages(t *testing.T) {
	t.Parallel()

	c, err := Compile(Rules{
		RecordSelector: ".rec",
		Mappings:       []Mapping{{Selector: ".name", Extract: "text", Field: "name"}},
		Paging:         &PagingRules{CountSelector: "#total", CountMatch: `of (\d+)`, PerPage: 20, Format: "%s?page=%d"},
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	doc, _ := ParseDocument(`<p id="total">Showing 1-20 of 41 faculty</p>`)
	pages, ok, err := c.DiscoverPages("https://example.com/dir", doc)
	if err != nil || !ok {
		t.Fatalf("DiscoverPages: ok=%v err=%v", ok, err)
	}
	want := []string{"https://example.com/dir", "https://example.com/dir?page=2", "https://example.com/dir?page=3"}
	if diff := cmp.Diff(want, pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}

	doc, _ = ParseDocument(`<p>no count here</p>`)
	if _, ok, _ := c.DiscoverPages("https://example.com/dir", doc); ok {
		t.Fatalf("expected ok=false without a count")
	}
}
