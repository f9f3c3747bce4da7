// Package postgres stores scrape results in PostgreSQL using the COPY protocol.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"faculty/internal/faculty"
	"faculty/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

func init() {
	storage.Register("postgres", Open)
}

// pool is the subset of *pgxpool.Pool the sink uses; pgxmock satisfies it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// Sink implements storage.Sink for PostgreSQL. Subjects and research topics
// are stored as text[].
type Sink struct {
	pool   pool
	schema string
	table  string
}

// Open connects a pgx pool to cfg.DSN.
func Open(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	p, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "postgres connect")
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, eris.Wrap(err, "postgres ping")
	}
	return newSink(p, cfg.Table), nil
}

func newSink(p pool, table string) *Sink {
	schema, bare := storage.SplitTable(table)
	return &Sink{pool: p, schema: schema, table: bare}
}

func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema creates the schema (when qualified), the table, and its run index.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range buildCreateSQL(s.schema, s.table) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrapf(err, "postgres ensure schema %s", s.qualified())
		}
	}
	return nil
}

// WriteRecords bulk-loads r with COPY.
func (s *Sink) WriteRecords(ctx context.Context, runID string, r faculty.Result) (int64, error) {
	if len(r) == 0 {
		return 0, nil
	}
	n, err := s.pool.CopyFrom(ctx, s.identifier(), storage.Columns, pgx.CopyFromRows(copyRows(runID, r)))
	if err != nil {
		return 0, eris.Wrapf(err, "postgres COPY INTO %s", s.qualified())
	}
	return n, nil
}

// copyRows is storage.Rows with list columns kept as []string for text[].
func copyRows(runID string, r faculty.Result) [][]any {
	rows := storage.Rows(runID, r)
	for i, rec := range r {
		rows[i][5] = []string(nonNil(rec.Subjects))
		rows[i][6] = []string(nonNil(rec.ResearchTopics))
	}
	return rows
}

func nonNil(l faculty.List) faculty.List {
	if l == nil {
		return faculty.List{}
	}
	return l
}

func (s *Sink) identifier() pgx.Identifier {
	if s.schema == "" {
		return pgx.Identifier{s.table}
	}
	return pgx.Identifier{s.schema, s.table}
}

func (s *Sink) qualified() string {
	return s.identifier().Sanitize()
}

func pgIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func buildCreateSQL(schema, table string) []string {
	var stmts []string
	qualified := pgIdent(table)
	if schema != "" {
		stmts = append(stmts, "CREATE SCHEMA IF NOT EXISTS "+pgIdent(schema))
		qualified = pgIdent(schema) + "." + pgIdent(table)
	}

	cols := []string{
		"run_id uuid NOT NULL",
		"position integer NOT NULL",
		"name text NOT NULL",
		"college text NOT NULL",
		"email text NOT NULL",
		"subjects text[] NOT NULL DEFAULT '{}'",
		"research_topics text[] NOT NULL DEFAULT '{}'",
		"profile_url text NOT NULL",
		"scraped_at timestamptz NOT NULL DEFAULT now()",
		"PRIMARY KEY (run_id, position)",
	}
	stmts = append(stmts,
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", qualified, strings.Join(cols, ",\n\t")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (email)", pgIdent(table+"_email_idx"), qualified),
	)
	return stmts
}
