// Package sqlite stores scrape results in a SQLite file via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"faculty/internal/faculty"
	"faculty/internal/storage"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

func init() {
	storage.Register("sqlite", Open)
}

// Sink implements storage.Sink for SQLite. Schema-qualified table names use
// the schema part as a prefix ("main.x" stays "main"."x").
type Sink struct {
	db    *sql.DB
	table string
}

// Open opens (or creates) the database at cfg.DSN.
func Open(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite open")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite ping")
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	return &Sink{db: db, table: cfg.Table}, nil
}

func (s *Sink) Close() error { return s.db.Close() }

// EnsureSchema creates the records table and its run index.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	for _, stmt := range buildCreateSQL(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrapf(err, "sqlite ensure schema %s", s.table)
		}
	}
	return nil
}

// WriteRecords inserts all records in one transaction.
func (s *Sink) WriteRecords(ctx context.Context, runID string, r faculty.Result) (n int64, err error) {
	if len(r) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, buildInsertSQL(s.table))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite prepare insert")
	}
	defer stmt.Close()

	for _, row := range storage.Rows(runID, r) {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return n, eris.Wrapf(err, "sqlite insert row %d", n)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite commit")
	}
	return n, nil
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func tableIdent(name string) string {
	schema, table := storage.SplitTable(name)
	if schema == "" {
		return sqlIdent(table)
	}
	return sqlIdent(schema) + "." + sqlIdent(table)
}

func buildCreateSQL(table string) []string {
	schema, bare := storage.SplitTable(table)
	index := sqlIdent(bare + "_run_idx")
	if schema != "" {
		index = sqlIdent(schema) + "." + index
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	college TEXT NOT NULL,
	email TEXT NOT NULL,
	subjects TEXT NOT NULL,
	research_topics TEXT NOT NULL,
	profile_url TEXT NOT NULL,
	scraped_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (run_id, position)
)`, tableIdent(table)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (run_id)`, index, sqlIdent(bare)),
	}
}

func buildInsertSQL(table string) string {
	cols := make([]string, len(storage.Columns))
	marks := make([]string, len(storage.Columns))
	for i, c := range storage.Columns {
		cols[i] = sqlIdent(c)
		marks[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableIdent(table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}
