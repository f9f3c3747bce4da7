// Package faculty holds the scraped record type and its output adapters.
package faculty

import (
	"strings"

	"faculty/internal/emailparser"
)

// Field names produced by the selector rules.
const (
	FieldName           = "name"
	FieldCollege        = "college"
	FieldEmail          = "email"
	FieldSubjects       = "subjects"
	FieldResearchTopics = "research_topics"
	FieldProfileURL     = "profile_url"
)

// Columns is the fixed column order shared by the CSV header and the table view.
var Columns = []string{FieldName, FieldCollege, FieldEmail, FieldSubjects, FieldResearchTopics}

// Record describes one faculty member.
//
// ProfileURL is kept for profile enrichment and database sinks; it is not part
// of the CSV or table columns.
type Record struct {
	Name           string `csv:"name" json:"name"`
	College        string `csv:"college" json:"college"`
	Email          string `csv:"email" json:"email"`
	Subjects       List   `csv:"subjects" json:"subjects"`
	ResearchTopics List   `csv:"research_topics" json:"research_topics"`
	ProfileURL     string `csv:"-" json:"profile_url,omitempty"`
}

// Result is the ordered output of one scrape.
type Result []Record

// Clone returns a deep copy so callers cannot alias a scraper's stored result.
func (r Result) Clone() Result {
	if r == nil {
		return nil
	}
	out := make(Result, len(r))
	for i, rec := range r {
		rec.Subjects = append(List{}, rec.Subjects...)
		rec.ResearchTopics = append(List{}, rec.ResearchTopics...)
		out[i] = rec
	}
	return out
}

// FromFields builds a Record from an extracted field map.
//
// Absent fields become "" or an empty list. The email is normalized and
// validated; a malformed address is stored as "".
func FromFields(fields map[string]any) Record {
	return Record{
		Name:           stringField(fields[FieldName]),
		College:        stringField(fields[FieldCollege]),
		Email:          emailparser.Normalize(stringField(fields[FieldEmail])),
		Subjects:       listField(fields[FieldSubjects]),
		ResearchTopics: listField(fields[FieldResearchTopics]),
		ProfileURL:     stringField(fields[FieldProfileURL]),
	}
}

func stringField(v any) string {
	switch vv := v.(type) {
	case string:
		return strings.TrimSpace(vv)
	case []string:
		if len(vv) > 0 {
			return strings.TrimSpace(vv[0])
		}
	}
	return ""
}

func listField(v any) List {
	switch vv := v.(type) {
	case []string:
		out := make(List, 0, len(vv))
		for _, s := range vv {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(vv); s != "" {
			return List{s}
		}
	}
	return List{}
}

// Dedupe drops records whose non-empty email already appeared earlier in r.
// Records without an email are always kept.
func Dedupe(r Result) Result {
	seen := make(map[string]struct{}, len(r))
	out := make(Result, 0, len(r))
	for _, rec := range r {
		if rec.Email != "" {
			key := strings.ToLower(rec.Email)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, rec)
	}
	return out
}
