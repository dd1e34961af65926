package inserter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/satyammistari/sqlcollections/internal/config"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

// Inserter is the interface both SQLiteInserter and PostgresInserter implement.
type Inserter interface {
	// Check creates the schema and prepares every generated statement inside
	// a transaction that is always rolled back.
	Check(ctx context.Context, s *schema.Schema, doc *config.Document) error
	// Seed runs an insert group once per entry, binding values by column
	// name, and commits all entries together.
	Seed(ctx context.Context, statements []string, entries []map[string]any) (SeedStats, error)
	Close() error
}

// SeedStats counts what Seed did.
type SeedStats struct {
	Executed int
	Skipped  int
}

// Open opens a database from a connection string.
// Formats: "postgres://...", "postgresql://...", "sqlite:path", "sqlite://path"
// or a path ending in .db, .sqlite or .sqlite3.
func Open(conn string) (Inserter, error) {
	driver, dsn := parseConn(conn)
	if driver == "sqlite3" {
		return NewSQLite(dsn)
	}
	return NewPostgres(dsn)
}

func parseConn(conn string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(conn, "sqlite://"):
		return "sqlite3", strings.TrimPrefix(conn, "sqlite://")
	case strings.HasPrefix(conn, "sqlite:"):
		return "sqlite3", strings.TrimPrefix(conn, "sqlite:")
	case strings.HasSuffix(conn, ".db"), strings.HasSuffix(conn, ".sqlite"), strings.HasSuffix(conn, ".sqlite3"):
		return "sqlite3", conn
	}
	return "pgx", conn
}

var insertRe = regexp.MustCompile(`(?is)^\s*INSERT\s+INTO\s+["` + "`" + `]?(\w+)["` + "`" + `]?\s*(?:\(([^)]*)\)\s*VALUES|DEFAULT\s+VALUES)`)

// ColumnsOf returns the target table and column list of an INSERT template.
// DEFAULT VALUES statements have no columns.
func ColumnsOf(stmt string) (table string, columns []string, err error) {
	m := insertRe.FindStringSubmatch(stmt)
	if m == nil {
		return "", nil, fmt.Errorf("not an INSERT template: %.60s", stmt)
	}
	for _, c := range strings.Split(m[2], ",") {
		if c = strings.Trim(strings.TrimSpace(c), "\"`"); c != "" {
			columns = append(columns, c)
		}
	}
	return m[1], columns, nil
}

// base holds the behaviour shared by both drivers.
type base struct {
	db *sql.DB
}

func (b *base) Close() error {
	return b.db.Close()
}

func (b *base) Check(ctx context.Context, s *schema.Schema, doc *config.Document) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range createOrder(s) {
		if _, err := tx.ExecContext(ctx, t.Statement); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	}
	var errs []error
	prepare := func(collection, q string) {
		stmt, err := tx.PrepareContext(ctx, q)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w\nSQL: %s", collection, err, q))
			return
		}
		stmt.Close()
	}
	for _, c := range doc.Collections {
		for _, q := range doc.Inserts[c] {
			prepare(c, q)
		}
		prepare(c, doc.Reads[c])
	}
	return errors.Join(errs...)
}

func (b *base) Seed(ctx context.Context, statements []string, entries []map[string]any) (SeedStats, error) {
	var stats SeedStats
	if len(entries) == 0 {
		return stats, nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, entry := range entries {
		for _, q := range statements {
			table, cols, err := ColumnsOf(q)
			if err != nil {
				return stats, err
			}
			runs, ok, err := bindEntry(cols, entry)
			if err != nil {
				return stats, fmt.Errorf("entry %d, %s: %w", i+1, table, err)
			}
			if !ok {
				stats.Skipped++
				continue
			}
			for _, args := range runs {
				if _, err := tx.ExecContext(ctx, q, args...); err != nil {
					return stats, fmt.Errorf("entry %d: exec insert: %w\nSQL: %s", i+1, err, q)
				}
				stats.Executed++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit: %w", err)
	}
	return stats, nil
}

// bindEntry builds the argument lists for one statement. ok is false when
// the entry lacks one of the columns. A single list-valued column expands
// into one run per element.
func bindEntry(cols []string, entry map[string]any) (runs [][]any, ok bool, err error) {
	args := make([]any, len(cols))
	listAt := -1
	var list []any
	for i, c := range cols {
		v, present := entry[c]
		if !present {
			return nil, false, nil
		}
		if l, isList := asList(v); isList {
			if listAt >= 0 {
				return nil, false, fmt.Errorf("columns %s and %s are both lists", cols[listAt], c)
			}
			listAt, list = i, l
		}
		args[i] = v
	}
	if listAt < 0 {
		return [][]any{args}, true, nil
	}
	for _, item := range list {
		run := append([]any(nil), args...)
		run[listAt] = item
		runs = append(runs, run)
	}
	return runs, true, nil
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// createOrder returns the tables so that every referenced table is created
// before the tables pointing at it.
func createOrder(s *schema.Schema) []*schema.Table {
	var order []*schema.Table
	visited := make(map[string]bool)
	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		if t := s.Table(name); t != nil {
			for _, dep := range t.DependsOn() {
				visit(dep)
			}
			order = append(order, t)
		}
	}
	for _, t := range s.Tables {
		visit(t.Name)
	}
	return order
}
