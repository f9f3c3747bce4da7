package extracthtml

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Page is one saved HTML document.
type Page struct {
	Name string
	HTML string
}

// ReadDir loads the .html/.htm files in dir ordered by file name.
// Subdirectories and unreadable files are skipped.
func ReadDir(dir string) ([]Page, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrap(err, "read dir")
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	var pages []Page
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".html", ".htm":
		default:
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		pages = append(pages, Page{Name: e.Name(), HTML: string(b)})
	}
	return pages, nil
}
