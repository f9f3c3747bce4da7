package extracthtml

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

var reDigitGroups = regexp.MustCompile(`\d+`)

// ResolveHref resolves href against base, returning an absolute URL string.
// If href is invalid, it is returned unchanged.
func ResolveHref(base *url.URL, href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// ParseCountAny extracts an integer count from v.
//
// Digit groups are joined, so "(1 096 members)" reads as 1096. ok is false
// when v holds no digits.
func ParseCountAny(v any) (count int, ok bool, err error) {
	s, _ := v.(string)
	parts := reDigitGroups.FindAllString(s, -1)
	if len(parts) == 0 {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.Join(parts, ""))
	if err != nil {
		return 0, false, eris.Wrapf(err, "parse count %q", s)
	}
	return n, true, nil
}

// PagesFromCount lists the pages needed to show count items at perPage per
// page. The first page is baseURL itself; page p >= 2 is
// fmt.Sprintf(format, baseURL, p). An empty format means "%s/%d".
//
// Example (count=51, perPage=25):
//
//	baseURL
//	baseURL/2
//	baseURL/3
func PagesFromCount(baseURL string, count, perPage int, format string) []string {
	if count <= 0 || perPage <= 0 {
		return nil
	}
	if format == "" {
		format = "%s/%d"
	}
	if strings.HasPrefix(format, "%s/") {
		baseURL = strings.TrimRight(baseURL, "/")
	}

	total := (count + perPage - 1) / perPage
	out := make([]string, 0, total)
	out = append(out, baseURL)
	for p := 2; p <= total; p++ {
		out = append(out, fmt.Sprintf(format, baseURL, p))
	}
	return out
}

// ExpandLetters derives one page per letter of an A-Z style range by setting
// the query parameter param. spec is a comma list of letters or ranges,
// e.g. "A-Z" or "A-C,X".
func ExpandLetters(baseURL, param, spec string) ([]string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, eris.Wrapf(err, "parse base url %q", baseURL)
	}
	if param == "" {
		param = "letter"
	}

	letters, err := parseLetterSpec(spec)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(letters))
	for _, l := range letters {
		q := u.Query()
		q.Set(param, string(l))
		cp := *u
		cp.RawQuery = q.Encode()
		out = append(out, cp.String())
	}
	return out, nil
}

func parseLetterSpec(spec string) ([]rune, error) {
	var out []rune
	seen := map[rune]bool{}
	add := func(r rune) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		switch {
		case part == "":
			continue
		case len(part) == 1 && isLetter(rune(part[0])):
			add(rune(part[0]))
		case len(part) == 3 && part[1] == '-' && isLetter(rune(part[0])) && isLetter(rune(part[2])) && part[0] <= part[2]:
			for r := rune(part[0]); r <= rune(part[2]); r++ {
				add(r)
			}
		default:
			return nil, eris.Errorf("bad letter range %q", part)
		}
	}
	if len(out) == 0 {
		return nil, eris.New("empty letter range")
	}
	return out, nil
}

func isLetter(r rune) bool { return r >= 'A' && r <= 'Z' }

// DiscoverPages reads the item count from the first directory page and
// returns the full page list. ok is false when the rules have no paging or
// the page shows no count.
func (c *Compiled) DiscoverPages(firstURL string, doc *goquery.Document) (pages []string, ok bool, err error) {
	if c.paging == nil {
		return nil, false, nil
	}
	text := cleanText(doc.Find(c.paging.selector).First().Text())
	text = applyRegexFilter(text, c.paging.re)

	count, ok, err := ParseCountAny(text)
	if err != nil || !ok || count == 0 {
		return nil, false, err
	}
	return PagesFromCount(firstURL, count, c.paging.perPage, c.paging.format), true, nil
}
