// Package storage defines the backend-agnostic result sink and its registry.
//
// Backends register themselves from init(); import storage/all (or a single
// backend package) for side effects before calling Open.
package storage

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"faculty/internal/faculty"

	"github.com/rotisserie/eris"
)

// DefaultTable is used when Config.Table is empty.
const DefaultTable = "faculty_records"

// Config selects and configures a sink.
type Config struct {
	Kind  string // "sqlite", "postgres", "mssql"
	DSN   string
	Table string // optionally schema-qualified, e.g. "public.faculty_records"
}

// Sink persists scrape results. Each WriteRecords call appends one run.
type Sink interface {
	// EnsureSchema creates the target table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// WriteRecords stores r under runID, preserving record order in the
	// position column. It returns the number of rows written.
	WriteRecords(ctx context.Context, runID string, r faculty.Result) (int64, error)

	Close() error
}

// Columns is the stored column order shared by all backends.
var Columns = []string{
	"run_id",
	"position",
	"name",
	"college",
	"email",
	"subjects",
	"research_topics",
	"profile_url",
}

// Factory opens a backend for cfg. cfg.Table is already defaulted and validated.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It panics on an empty kind,
// a nil factory, or a duplicate registration.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open constructs the sink registered for cfg.Kind.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.Kind == "" {
		return nil, eris.New("storage: missing kind")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	if err := ValidateTable(cfg.Table); err != nil {
		return nil, err
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, eris.Errorf("storage: unsupported kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}

var reTablePart = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateTable accepts "table" or "schema.table" made of identifier characters.
func ValidateTable(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return eris.Errorf("storage: table %q has too many name parts", name)
	}
	for _, p := range parts {
		if !reTablePart.MatchString(p) {
			return eris.Errorf("storage: invalid table name %q", name)
		}
	}
	return nil
}

// SplitTable returns the schema ("" if absent) and table parts of name.
func SplitTable(name string) (schema, table string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Rows flattens r into rows in Columns order. List fields are joined with
// faculty.ListSeparator; positions start at 0.
func Rows(runID string, r faculty.Result) [][]any {
	rows := make([][]any, len(r))
	for i, rec := range r {
		rows[i] = []any{
			runID,
			int64(i),
			rec.Name,
			rec.College,
			rec.Email,
			rec.Subjects.String(),
			rec.ResearchTopics.String(),
			rec.ProfileURL,
		}
	}
	return rows
}
