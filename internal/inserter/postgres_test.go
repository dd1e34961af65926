package inserter

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/satyammistari/sqlcollections/internal/pipeline"
)

const pgSchema = `
-- @collection
CREATE TABLE blog (
  id SERIAL PRIMARY KEY, -- ignore
  slug TEXT NOT NULL,
  title TEXT,
  published_at TIMESTAMPTZ DEFAULT now() -- ignore
);

-- @attribute
CREATE TABLE tags (
  id SERIAL PRIMARY KEY, -- ignore
  name TEXT UNIQUE -- @aggregate
);

CREATE TABLE blog_tags (
  blog_id INTEGER REFERENCES blog(id),
  tag_id INTEGER REFERENCES tags(id),
  PRIMARY KEY (blog_id, tag_id)
);
`

func TestPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL container in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("sqlcollections"),
		postgres.WithUsername("sqlcollections"),
		postgres.WithPassword("sqlcollections"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatal(err)
	}
	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	ins, err := Open(dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer ins.Close()
	pg, ok := ins.(*PostgresInserter)
	if !ok {
		t.Fatalf("expected *PostgresInserter, got %T", ins)
	}

	res, err := pipeline.Run(ctx, pgSchema, pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := pg.Check(ctx, res.Schema, res.Document); err != nil {
		t.Fatalf("check: %v", err)
	}
	var exists bool
	if err := pg.db.QueryRow("SELECT to_regclass('public.blog') IS NOT NULL").Scan(&exists); err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("check should roll back the schema")
	}

	for _, tb := range createOrder(res.Schema) {
		if _, err := pg.db.Exec(tb.Statement); err != nil {
			t.Fatalf("create %s: %v", tb.Name, err)
		}
	}
	stats, err := pg.Seed(ctx, res.Document.Inserts["blog"], []map[string]any{
		{"name": []any{"go", "postgres"}, "slug": "hello", "title": "Hello"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Executed != 3 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}

	rows, err := pg.db.Query(res.Document.Reads["blog"])
	if err != nil {
		t.Fatalf("read query: %v", err)
	}
	defer rows.Close()
	n := 0
	for rows.Next() {
		n++
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("read query returned %d rows, want 1", n)
	}
}
