package inserter

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/satyammistari/sqlcollections/internal/generator"
	"github.com/satyammistari/sqlcollections/internal/pipeline"
)

const blogSchema = `
-- @collection
CREATE TABLE blog (
  id INTEGER PRIMARY KEY, -- ignore
  slug TEXT NOT NULL,
  title TEXT,
  author_id INTEGER REFERENCES authors(id)
);

-- @attribute
CREATE TABLE authors (
  id INTEGER PRIMARY KEY,
  handle TEXT
);

-- @attribute
CREATE TABLE tags (
  id INTEGER PRIMARY KEY, -- ignore
  name TEXT -- @aggregate
);

-- @junction
CREATE TABLE blog_tags (
  blog_id INTEGER REFERENCES blog(id),
  tag_id INTEGER REFERENCES tags(id)
);
`

func TestParseConn(t *testing.T) {
	tests := []struct {
		conn, driver, dsn string
	}{
		{"sqlite:./dev.db", "sqlite3", "./dev.db"},
		{"sqlite://data/site.sqlite", "sqlite3", "data/site.sqlite"},
		{"content.db", "sqlite3", "content.db"},
		{"postgres://u:p@localhost/db", "pgx", "postgres://u:p@localhost/db"},
		{"host=localhost dbname=site", "pgx", "host=localhost dbname=site"},
	}
	for _, tt := range tests {
		driver, dsn := parseConn(tt.conn)
		if driver != tt.driver || dsn != tt.dsn {
			t.Errorf("parseConn(%q) = %s, %s", tt.conn, driver, dsn)
		}
	}
}

func TestColumnsOf(t *testing.T) {
	tests := []struct {
		stmt  string
		table string
		cols  []string
	}{
		{"INSERT INTO blog (slug, title) VALUES ($1, $2)", "blog", []string{"slug", "title"}},
		{"insert into \"tags\" (\"name\") values (?)", "tags", []string{"name"}},
		{"INSERT INTO pings DEFAULT VALUES", "pings", nil},
	}
	for _, tt := range tests {
		table, cols, err := ColumnsOf(tt.stmt)
		if err != nil {
			t.Fatalf("%s: %v", tt.stmt, err)
		}
		if table != tt.table || !reflect.DeepEqual(cols, tt.cols) {
			t.Errorf("ColumnsOf(%q) = %s, %v", tt.stmt, table, cols)
		}
	}
	if _, _, err := ColumnsOf("SELECT 1"); err == nil {
		t.Error("expected an error for a SELECT")
	}
}

func TestBindEntry(t *testing.T) {
	runs, ok, err := bindEntry([]string{"blog_id", "tag"}, map[string]any{"blog_id": 1, "tag": []any{"go", "sql"}})
	if err != nil || !ok {
		t.Fatalf("bindEntry: %v %v", ok, err)
	}
	want := [][]any{{1, "go"}, {1, "sql"}}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("runs = %v, want %v", runs, want)
	}

	if _, ok, _ := bindEntry([]string{"missing"}, map[string]any{"x": 1}); ok {
		t.Error("an entry without the column should be skipped")
	}
	if _, _, err := bindEntry([]string{"a", "b"}, map[string]any{"a": []string{"x"}, "b": []any{"y"}}); err == nil {
		t.Error("two list columns should be rejected")
	}
}

func openSQLite(t *testing.T) *SQLiteInserter {
	t.Helper()
	ins, err := Open("sqlite:" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ins.Close() })
	si, ok := ins.(*SQLiteInserter)
	if !ok {
		t.Fatalf("expected *SQLiteInserter, got %T", ins)
	}
	return si
}

func TestSQLiteCheck(t *testing.T) {
	ctx := context.Background()
	si := openSQLite(t)

	res, err := pipeline.Run(ctx, blogSchema, pipeline.Options{Generator: generator.Config{Dialect: generator.SQLite}})
	if err != nil {
		t.Fatal(err)
	}
	if err := si.Check(ctx, res.Schema, res.Document); err != nil {
		t.Fatalf("check: %v", err)
	}
	var n int
	if err := si.db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table'").Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("check should roll back, found %d tables", n)
	}

	pg, err := pipeline.Run(ctx, blogSchema, pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	err = si.Check(ctx, pg.Schema, pg.Document)
	if err == nil || !strings.Contains(err.Error(), "array_agg") {
		t.Errorf("postgres read SQL should not prepare on sqlite, got %v", err)
	}
}

func TestSQLiteSeed(t *testing.T) {
	ctx := context.Background()
	si := openSQLite(t)

	res, err := pipeline.Run(ctx, blogSchema, pipeline.Options{Generator: generator.Config{Dialect: generator.SQLite}})
	if err != nil {
		t.Fatal(err)
	}
	for _, tb := range res.Schema.Tables {
		if _, err := si.db.Exec(tb.Statement); err != nil {
			t.Fatalf("create %s: %v", tb.Name, err)
		}
	}

	stmts := res.Document.Inserts["blog"]
	// authors, tags, blog_tags, blog
	if len(stmts) != 4 {
		t.Fatalf("unexpected insert group: %q", stmts)
	}
	entries := []map[string]any{
		{"id": 7, "handle": "ana", "name": []any{"go", "sql"}, "slug": "hello", "title": "Hello", "author_id": 7},
		{"slug": "draft"},
	}
	stats, err := si.Seed(ctx, stmts, entries)
	if err != nil {
		t.Fatal(err)
	}
	// entry 1: authors once, tags twice, blog_tags skipped, blog once
	// entry 2: every statement lacks a column
	if stats.Executed != 4 || stats.Skipped != 5 {
		t.Errorf("stats = %+v", stats)
	}

	count := func(table string) int {
		var n int
		if err := si.db.QueryRow("SELECT count(*) FROM " + table).Scan(&n); err != nil {
			t.Fatal(err)
		}
		return n
	}
	if count("tags") != 2 || count("blog") != 1 || count("authors") != 1 {
		t.Errorf("tags=%d blog=%d authors=%d", count("tags"), count("blog"), count("authors"))
	}

	rows, err := si.db.Query(res.Document.Reads["blog"])
	if err != nil {
		t.Fatalf("read query: %v", err)
	}
	rows.Close()
}
