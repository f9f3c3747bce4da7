package extracthtml

import (
	"net/url"
	"regexp"
	"strings"

	"faculty/internal/emailparser"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
)

// ExtractOneHTML applies mappings to the whole document and returns one field map.
// Missing selectors produce no output rather than an error.
func ExtractOneHTML(html string, mappings []Mapping) (map[string]any, error) {
	ms, err := compileMappings(mappings, "mappings")
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}
	return parseSelection(doc.Selection, ms), nil
}

// ExtractRecordsHTML extracts one field map per element matched by
// recordSelector, in DOM order.
func ExtractRecordsHTML(html, recordSelector string, mappings []Mapping) ([]map[string]any, error) {
	c, err := Compile(Rules{RecordSelector: recordSelector, Mappings: mappings})
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(html)
	if err != nil {
		return nil, err
	}
	return c.Records(doc), nil
}

// ParseDocument parses an HTML string into a goquery document.
func ParseDocument(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "parse html")
	}
	return doc, nil
}

// Records returns one field map per record block. Blocks that yield no fields
// at all are skipped.
func (c *Compiled) Records(doc *goquery.Document) []map[string]any {
	var records []map[string]any
	doc.Find(c.recordSelector).Each(func(_ int, rec *goquery.Selection) {
		if obj := parseSelection(rec, c.mappings); len(obj) > 0 {
			records = append(records, obj)
		}
	})
	return records
}

// HasProfile reports whether the rules define a follow-up profile page.
func (c *Compiled) HasProfile() bool { return c.profile != nil }

// HasPaging reports whether the rules can discover pagination.
func (c *Compiled) HasPaging() bool { return c.paging != nil }

// ProfileURL returns the absolute profile page URL for a record, after the
// optional rewrite, or "" when the record has none.
func (c *Compiled) ProfileURL(base *url.URL, fields map[string]any) string {
	if c.profile == nil {
		return ""
	}
	href, _ := fields[c.profile.urlField].(string)
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if c.profile.rewriteRe != nil {
		href = c.profile.rewriteRe.ReplaceAllString(href, c.profile.replace)
	}
	return ResolveHref(base, href)
}

// Profile applies the profile mappings to a profile page document.
func (c *Compiled) Profile(doc *goquery.Document) map[string]any {
	if c.profile == nil {
		return nil
	}
	return parseSelection(doc.Selection, c.profile.mappings)
}

// parseSelection applies mappings relative to root.
//
//   - All collects every match; otherwise only the first match is read.
//   - Match keeps capture group 1 when present, else the full match; no match
//     drops the value.
//   - All or Split produce []string; everything else produces string.
//   - When several mappings target one field, the first non-empty value wins,
//     so later mappings act as fallbacks for alternate layouts.
func parseSelection(root *goquery.Selection, mappings []compiledMapping) map[string]any {
	output := make(map[string]any)

	for _, m := range mappings {
		if _, done := output[m.Field]; done {
			continue
		}

		sel := root.Find(m.Selector)
		if !m.All {
			sel = sel.First()
		}

		var vals []string
		sel.Each(func(_ int, s *goquery.Selection) {
			vals = append(vals, m.values(s)...)
		})
		if len(vals) == 0 {
			continue
		}

		if m.All || m.Split != "" {
			output[m.Field] = vals
			continue
		}
		output[m.Field] = vals[0]
	}

	return output
}

// values reads one matched node and returns its post-processed values.
func (m compiledMapping) values(sel *goquery.Selection) []string {
	raw := m.extract(sel)
	if raw == "" {
		return nil
	}

	v := applyRegexFilter(raw, m.re)
	if v == "" {
		return nil
	}

	parts := []string{v}
	if m.Split != "" {
		parts = parts[:0]
		for _, p := range strings.Split(v, m.Split) {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
	}

	if m.Prefix != "" && (m.prefixIf == nil || m.prefixIf.MatchString(raw)) {
		for i := range parts {
			if !strings.HasPrefix(parts[i], m.Prefix) {
				parts[i] = m.Prefix + parts[i]
			}
		}
	}
	return parts
}

func (m compiledMapping) extract(sel *goquery.Selection) string {
	switch m.Extract {
	case "text":
		return cleanText(sel.Text())
	case "attr":
		v, _ := sel.Attr(m.Attr)
		return strings.TrimSpace(v)
	case "mailto":
		v, _ := sel.Attr("href")
		return emailparser.Normalize(v)
	case "js_email":
		return emailparser.DecodeEmailFromScript(sel.Text())
	}
	return ""
}

// cleanText NFC-normalizes s and collapses runs of whitespace, so names split
// across lines in the markup read as one line.
func cleanText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// applyRegexFilter returns value unchanged when re is nil, "" when re does
// not match, group 1 when re has groups, and the full match otherwise.
func applyRegexFilter(value string, re *regexp.Regexp) string {
	if value == "" || re == nil {
		return value
	}
	sm := re.FindStringSubmatch(value)
	if len(sm) == 0 {
		return ""
	}
	if len(sm) > 1 {
		return strings.TrimSpace(sm[1])
	}
	return strings.TrimSpace(sm[0])
}
