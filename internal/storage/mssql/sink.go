// Package mssql stores scrape results in Microsoft SQL Server.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"faculty/internal/faculty"
	"faculty/internal/storage"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/rotisserie/eris"
)

func init() {
	storage.Register("mssql", Open)
}

// maxParams stays under SQL Server's 2100 parameter limit per statement.
const maxParams = 2000

// dbConn is the subset of *sql.DB the sink uses.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

// Sink implements storage.Sink for SQL Server.
type Sink struct {
	db    dbConn
	table string
}

// Open connects with the "sqlserver" driver and pings the server.
func Open(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, eris.Wrap(err, "mssql open")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "mssql ping")
	}
	return &Sink{db: db, table: cfg.Table}, nil
}

func (s *Sink) Close() error { return s.db.Close() }

// EnsureSchema creates the table when it is missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, buildCreateSQL(s.table)); err != nil {
		return eris.Wrapf(err, "mssql ensure schema %s", s.table)
	}
	return nil
}

// WriteRecords inserts r in parameter-bounded batches inside one transaction.
func (s *Sink) WriteRecords(ctx context.Context, runID string, r faculty.Result) (n int64, err error) {
	if len(r) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "mssql begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, batch := range chunkRows(storage.Rows(runID, r), maxParams/len(storage.Columns)) {
		query, args := buildBulkInsertSQL(s.table, storage.Columns, batch)
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, eris.Wrapf(err, "mssql insert into %s", s.table)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = int64(len(batch))
		}
		n += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "mssql commit")
	}
	return n, nil
}

func chunkRows(rows [][]any, size int) [][][]any {
	if size <= 0 {
		size = 1
	}
	var out [][][]any
	for len(rows) > 0 {
		end := min(size, len(rows))
		out = append(out, rows[:end])
		rows = rows[end:]
	}
	return out
}

func buildCreateSQL(table string) string {
	_, bare := storage.SplitTable(table)
	defs := strings.Join([]string{
		"[run_id] UNIQUEIDENTIFIER NOT NULL",
		"[position] INT NOT NULL",
		"[name] NVARCHAR(400) NOT NULL",
		"[college] NVARCHAR(400) NOT NULL",
		"[email] NVARCHAR(320) NOT NULL",
		"[subjects] NVARCHAR(MAX) NOT NULL",
		"[research_topics] NVARCHAR(MAX) NOT NULL",
		"[profile_url] NVARCHAR(2048) NOT NULL",
		"[scraped_at] DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()",
		fmt.Sprintf("CONSTRAINT %s PRIMARY KEY ([run_id], [position])", mssqlIdent("pk_"+bare)),
	}, ", ")
	return wrapCreateIfMissing(table, defs)
}

// wrapCreateIfMissing guards CREATE TABLE with an OBJECT_ID check.
func wrapCreateIfMissing(tableName, innerDefs string) string {
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL BEGIN CREATE TABLE %s (%s); END;",
		tableName,
		mssqlTableIdent(tableName),
		innerDefs,
	)
}

// buildBulkInsertSQL builds one INSERT ... VALUES statement with @pN placeholders.
func buildBulkInsertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(mssqlTableIdent(table))
	b.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(mssqlIdent(c))
	}
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}
	return b.String(), args
}

// mssqlIdent returns a bracket-quoted identifier, escaping ']' as ']]'.
func mssqlIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// mssqlTableIdent quotes each part of a schema-qualified name:
// "dbo.faculty" -> [dbo].[faculty].
func mssqlTableIdent(name string) string {
	parts := strings.Split(name, ".")
	for i := range parts {
		parts[i] = mssqlIdent(strings.TrimSpace(parts[i]))
	}
	return strings.Join(parts, ".")
}

var _ dbConn = (*sql.DB)(nil)
