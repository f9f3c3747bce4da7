package extracthtml

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DebugPrintSelector prints the outer HTML, or the trimmed text, of every
// match for selector, each followed by a blank line. It is the rule-authoring
// aid behind the "debug" command.
func DebugPrintSelector(w io.Writer, html, selector string, textOnly bool) error {
	doc, err := ParseDocument(html)
	if err != nil {
		return err
	}

	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if textOnly {
			fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(s.Text()))
			return
		}
		out, err := goquery.OuterHtml(s)
		if err != nil {
			out, _ = s.Html()
		}
		fmt.Fprintf(w, "%s\n\n", out)
	})
	return nil
}
