package extracthtml

import (
	"bytes"
	"strings"
	"testing"
)

func TestDebugPrintSelector_TextOnly(t *testing.T) {
	t.Parallel()

	html := `<div class="profileinfo-teaser-name">  Akhter Nasrin  </div><div class="profileinfo-teaser-name">Roe Jane</div>`
	var buf bytes.Buffer

	if err := DebugPrintSelector(&buf, html, ".profileinfo-teaser-name", true); err != nil {
		t.Fatalf("DebugPrintSelector: %v", err)
	}

	want := "Akhter Nasrin\n\nRoe Jane\n\n"
	if buf.String() != want {
		t.Fatalf("unexpected output:\nwant=%q\ngot=%q", want, buf.String())
	}
}

// Exact serialization is up to goquery; only the structure is asserted.
func TestDebugPrintSelector_OuterHTML(t *testing.T) {
	t.Parallel()

	html := `<div id="x"><a class="title" href="/p.html">Hi</a></div>`
	var buf bytes.Buffer

	if err := DebugPrintSelector(&buf, html, "div#x", false); err != nil {
		t.Fatalf("DebugPrintSelector: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `<div id="x">`) || !strings.Contains(out, `<a class="title" href="/p.html">Hi</a>`) {
		t.Fatalf("unexpected outer html output: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Fatalf("expected trailing blank line, got %q", out)
	}
}
