package extracthtml

// Mapping is one selector rule: where a field lives and how to read it.
type Mapping struct {
	Selector string `json:"selector" yaml:"selector"`               // relative to the record (or document)
	Extract  string `json:"extract" yaml:"extract"`                 // "text", "attr", "mailto", "js_email"
	Attr     string `json:"attr,omitempty" yaml:"attr,omitempty"`   // used when Extract == "attr"
	Field    string `json:"field" yaml:"field"`                     // output key
	Match    string `json:"match,omitempty" yaml:"match,omitempty"` // optional regex; group 1 wins
	All      bool   `json:"all,omitempty" yaml:"all,omitempty"`     // collect every match into []string
	Split    string `json:"split,omitempty" yaml:"split,omitempty"` // split each value on this separator

	// Prefix is prepended when the raw extracted value matches PrefixIf
	// (or always, if PrefixIf is empty).
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	PrefixIf string `json:"prefix_if,omitempty" yaml:"prefix_if,omitempty"`
}

// Rewrite maps one URL to another with a regex replacement.
type Rewrite struct {
	Match   string `json:"match" yaml:"match"`
	Replace string `json:"replace" yaml:"replace"`
}

// ProfileRules describe a follow-up page fetched per record.
type ProfileRules struct {
	URLField string    `json:"url_field" yaml:"url_field"`
	Rewrite  *Rewrite  `json:"rewrite,omitempty" yaml:"rewrite,omitempty"`
	Mappings []Mapping `json:"mappings" yaml:"mappings"`
}

// PagingRules let the first directory page announce how many pages follow.
type PagingRules struct {
	CountSelector string `json:"count_selector" yaml:"count_selector"`
	CountMatch    string `json:"count_match,omitempty" yaml:"count_match,omitempty"`
	PerPage       int    `json:"per_page" yaml:"per_page"`
	Format        string `json:"format,omitempty" yaml:"format,omitempty"` // e.g. "%s?page=%d"; default "%s/%d"
}

// Rules is a complete selector configuration for one directory site.
type Rules struct {
	RecordSelector string        `json:"record_selector" yaml:"record_selector"`
	Mappings       []Mapping     `json:"mappings" yaml:"mappings"`
	Profile        *ProfileRules `json:"profile,omitempty" yaml:"profile,omitempty"`
	Paging         *PagingRules  `json:"paging,omitempty" yaml:"paging,omitempty"`
}
