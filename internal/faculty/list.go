package faculty

import (
	"encoding/json"
	"strings"
)

// ListSeparator joins multi-valued fields inside a single cell.
const ListSeparator = "; "

// List is an ordered multi-valued field. It marshals to one text cell.
//
// The cell format has no escaping: an item that itself contains ';' comes
// back from UnmarshalText (and so ReadCSV) as several items.
type List []string

// String joins the list with ListSeparator.
func (l List) String() string {
	return strings.Join(l, ListSeparator)
}

// MarshalText implements encoding.TextMarshaler.
func (l List) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Items are split on ';'
// and trimmed; blank items are dropped.
func (l *List) UnmarshalText(b []byte) error {
	*l = SplitList(string(b))
	return nil
}

// SplitList is the inverse of List.String for items without ';'.
func SplitList(s string) List {
	out := List{}
	for _, part := range strings.Split(s, strings.TrimSpace(ListSeparator)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// MarshalJSON keeps lists as JSON arrays even though List is a TextMarshaler.
func (l List) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *List) UnmarshalJSON(b []byte) error {
	var items []string
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l = append(List{}, items...)
	return nil
}
