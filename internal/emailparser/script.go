package emailparser

import (
	"encoding/base64"
	"encoding/json"
	"html"
	"regexp"
	"strings"
)

var (
	reScriptVar = regexp.MustCompile(`\bvar\s+a\s*=\s*'([^']*)'`)
	reClassList = regexp.MustCompile(`\bclass\s*=\s*"([^"]+)"`)
)

// DecodeEmailFromScript recovers an address hidden by an inline script of the
// form var a='...' plus Base64 JSON directives carried in the class list of the
// email element. Supported directives:
//
//	{"rmv":"<substr>"}  remove injected noise
//	{"h":"m"}           real 'h' was written as 'm'
//	{"rot":"it"}        the whole string is ROT13
//
// Directives are applied in that order after HTML-unescaping. The result goes
// through Normalize, so "" means nothing usable was found.
func DecodeEmailFromScript(script string) string {
	m := reScriptVar.FindStringSubmatch(script)
	if len(m) != 2 {
		return ""
	}
	s := strings.TrimSpace(html.UnescapeString(m[1]))

	d := scanDirectives(script)
	for _, noise := range d.remove {
		s = strings.ReplaceAll(s, noise, "")
	}
	if len(d.swap) > 0 {
		s = strings.Map(func(r rune) rune {
			if orig, ok := d.swap[r]; ok {
				return orig
			}
			return r
		}, s)
	}
	if d.rot13 {
		s = rot13(s)
	}
	return Normalize(s)
}

type directives struct {
	rot13  bool
	remove []string
	swap   map[rune]rune // obfuscated -> real
}

// scanDirectives only looks at class lists that mark the email element, so
// unrelated Base64-ish CSS classes are never applied.
func scanDirectives(script string) directives {
	d := directives{swap: map[rune]rune{}}

	for _, ca := range reClassList.FindAllStringSubmatch(script, -1) {
		classes := ca[1]
		if !strings.Contains(classes, "email") && !strings.Contains(classes, "required") {
			continue
		}
		for _, tok := range strings.Fields(classes) {
			if len(tok) < 8 || len(tok) > 80 {
				continue
			}
			obj, ok := decodeToken(tok)
			if !ok {
				continue
			}
			for k, v := range obj {
				switch {
				case k == "rot":
					d.rot13 = d.rot13 || v == "it"
				case k == "rmv":
					if v != "" {
						d.remove = append(d.remove, v)
					}
				default:
					kr, vr := []rune(k), []rune(v)
					if len(kr) == 1 && len(vr) == 1 {
						d.swap[vr[0]] = kr[0]
					}
				}
			}
		}
	}
	return d
}

// decodeToken accepts standard or URL-safe Base64, padded or not, holding a
// non-empty JSON object of strings.
func decodeToken(tok string) (map[string]string, bool) {
	for len(tok)%4 != 0 {
		tok += "="
	}
	b, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		if b, err = base64.URLEncoding.DecodeString(tok); err != nil {
			return nil, false
		}
	}
	var obj map[string]string
	if err := json.Unmarshal(b, &obj); err != nil || len(obj) == 0 {
		return nil, false
	}
	return obj, true
}

func rot13(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return 'a' + (r-'a'+13)%26
		case r >= 'A' && r <= 'Z':
			return 'A' + (r-'A'+13)%26
		}
		return r
	}, s)
}
