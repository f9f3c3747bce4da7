package extracthtml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRules marks selector configurations rejected at load/compile time.
var ErrInvalidRules = eris.New("invalid selector rules")

// LoadRules reads a rules file. ".yaml" and ".yml" files are decoded as YAML,
// anything else as JSON. The result is validated and compiled once so a bad
// regex is reported here rather than per record.
func LoadRules(path string) (Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, eris.Wrap(err, "read rules file")
	}

	var r Rules
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &r)
	default:
		err = json.Unmarshal(b, &r)
	}
	if err != nil {
		return Rules{}, eris.Wrapf(err, "parse rules %s", path)
	}

	if _, err := Compile(r); err != nil {
		return Rules{}, err
	}
	return r, nil
}

type compiledMapping struct {
	Mapping
	re       *regexp.Regexp
	prefixIf *regexp.Regexp
}

type compiledProfile struct {
	urlField  string
	rewriteRe *regexp.Regexp
	replace   string
	mappings  []compiledMapping
}

type compiledPaging struct {
	selector string
	re       *regexp.Regexp
	perPage  int
	format   string
}

// Compiled is a validated Rules value with every regex precompiled.
// It is safe for concurrent use.
type Compiled struct {
	recordSelector string
	mappings       []compiledMapping
	profile        *compiledProfile
	paging         *compiledPaging
}

// Compile validates r and precompiles its regexes.
func Compile(r Rules) (*Compiled, error) {
	if strings.TrimSpace(r.RecordSelector) == "" {
		return nil, eris.Wrap(ErrInvalidRules, "record_selector is required")
	}
	ms, err := compileMappings(r.Mappings, "mappings")
	if err != nil {
		return nil, err
	}
	c := &Compiled{recordSelector: r.RecordSelector, mappings: ms}

	if p := r.Profile; p != nil {
		if strings.TrimSpace(p.URLField) == "" {
			return nil, eris.Wrap(ErrInvalidRules, "profile.url_field is required")
		}
		pms, err := compileMappings(p.Mappings, "profile.mappings")
		if err != nil {
			return nil, err
		}
		cp := &compiledProfile{urlField: p.URLField, mappings: pms}
		if p.Rewrite != nil {
			re, err := compileOptionalRegex(p.Rewrite.Match, "profile.rewrite")
			if err != nil {
				return nil, err
			}
			cp.rewriteRe, cp.replace = re, p.Rewrite.Replace
		}
		c.profile = cp
	}

	if pg := r.Paging; pg != nil {
		if strings.TrimSpace(pg.CountSelector) == "" || pg.PerPage <= 0 {
			return nil, eris.Wrap(ErrInvalidRules, "paging needs count_selector and per_page > 0")
		}
		re, err := compileOptionalRegex(pg.CountMatch, "paging.count_match")
		if err != nil {
			return nil, err
		}
		format := pg.Format
		if format == "" {
			format = "%s/%d"
		}
		c.paging = &compiledPaging{selector: pg.CountSelector, re: re, perPage: pg.PerPage, format: format}
	}

	return c, nil
}

func compileMappings(in []Mapping, where string) ([]compiledMapping, error) {
	if len(in) == 0 {
		return nil, eris.Wrapf(ErrInvalidRules, "%s: no mappings", where)
	}
	out := make([]compiledMapping, 0, len(in))
	for i, m := range in {
		if strings.TrimSpace(m.Selector) == "" || strings.TrimSpace(m.Field) == "" {
			return nil, eris.Wrapf(ErrInvalidRules, "%s[%d]: selector and field are required", where, i)
		}
		switch m.Extract {
		case "text", "mailto", "js_email":
		case "attr":
			if m.Attr == "" {
				return nil, eris.Wrapf(ErrInvalidRules, "%s[%d]: extract=attr needs attr", where, i)
			}
		default:
			return nil, eris.Wrapf(ErrInvalidRules, "%s[%d]: unknown extract %q", where, i, m.Extract)
		}

		re, err := compileOptionalRegex(m.Match, m.Field)
		if err != nil {
			return nil, err
		}
		pre, err := compileOptionalRegex(m.PrefixIf, m.Field)
		if err != nil {
			return nil, err
		}
		out = append(out, compiledMapping{Mapping: m, re: re, prefixIf: pre})
	}
	return out, nil
}

// compileOptionalRegex returns (nil, nil) for an empty pattern. Errors name
// the field so a bad rules file is easy to fix.
func compileOptionalRegex(pattern, field string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eris.Wrapf(ErrInvalidRules, "invalid regex for %s: %v", field, err)
	}
	return re, nil
}

// DefaultFacultyRules binds the engineering.buffalo.edu faculty directory markup.
//
// Each teaser block reads "Last First, PhD, Alma Mater". The name gets a
// "Dr. " prefix when the degree part mentions PhD. Subjects and research
// topics come from the member's teaching page, derived from the profile link.
func DefaultFacultyRules() Rules {
	return Rules{
		RecordSelector: "div.profileinfo-teaser",
		Mappings: []Mapping{
			{
				Selector: "div.profileinfo-teaser-name",
				Extract:  "text",
				Field:    "name",
				Match:    `^\s*([^,]+?)\s*(?:,|$)`,
				Prefix:   "Dr. ",
				PrefixIf: `^[^,]*,[^,]*\bPhD\b`,
			},
			{
				Selector: "div.profileinfo-teaser-name",
				Extract:  "text",
				Field:    "college",
				Match:    `^[^,]*,[^,]*,\s*([^,]+?)\s*(?:,|$)`,
			},
			{Selector: `a[href^="mailto:"]`, Extract: "mailto", Field: "email"},
			{Selector: "div.profileinfo-teaser-name a.title", Extract: "attr", Attr: "href", Field: "profile_url"},
		},
		Profile: &ProfileRules{
			URLField: "profile_url",
			Rewrite:  &Rewrite{Match: `\.html$`, Replace: ".teaching.html"},
			Mappings: []Mapping{
				{Selector: "div.text.parbase.section ul li", Extract: "text", Field: "subjects", All: true},
				{
					Selector: "div.profileinfo-interest.title",
					Extract:  "text",
					Field:    "research_topics",
					Match:    `^(?:Research (?:Topics|Interests)\s*:?)?\s*(.*)$`,
					All:      true,
					Split:    ";",
				},
			},
		},
	}
}
