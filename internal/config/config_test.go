package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/satyammistari/sqlcollections/internal/generator"
)

func sampleDocument(t *testing.T) *Document {
	t.Helper()
	groups := []generator.InsertGroup{
		{Collection: "blog", Statements: []string{
			"INSERT INTO tags (name) VALUES ($1)",
			"INSERT INTO blog_tags (blog_id, tag_id) VALUES ($1, $2)",
			"INSERT INTO blog (slug, title) VALUES ($1, $2)",
		}},
		{Collection: "about", Statements: []string{"INSERT INTO about (body) VALUES ($1)"}},
	}
	selects := []generator.SelectQuery{
		{Collection: "about", SQL: "SELECT about.body FROM about ORDER BY about.body"},
		{Collection: "blog", SQL: "SELECT blog.slug, blog.title, array_agg(DISTINCT tags.name) AS tags_name FROM blog WHERE blog.slug <> '' ORDER BY blog.id"},
	}
	doc, err := Emit(groups, selects)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestEmit(t *testing.T) {
	doc := sampleDocument(t)
	if !reflect.DeepEqual(doc.Collections, []string{"blog", "about"}) {
		t.Errorf("collections = %v, want insert group order", doc.Collections)
	}
	if len(doc.Inserts["blog"]) != 3 || doc.Reads["about"] == "" {
		t.Errorf("unexpected document: %+v", doc)
	}
}

func TestEmitMismatch(t *testing.T) {
	groups := []generator.InsertGroup{{Collection: "blog", Statements: []string{"INSERT INTO blog DEFAULT VALUES"}}}
	tests := []struct {
		name    string
		groups  []generator.InsertGroup
		selects []generator.SelectQuery
		wantErr string
	}{
		{"missing select", groups, nil, "no select query"},
		{"extra select", groups, []generator.SelectQuery{{Collection: "blog"}, {Collection: "x"}}, "no insert group"},
		{"duplicate group", append(groups, groups...), []generator.SelectQuery{{Collection: "blog"}}, "two insert groups"},
		{"empty group", []generator.InsertGroup{{Collection: "blog"}}, []generator.SelectQuery{{Collection: "blog"}}, "empty insert group"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Emit(tt.groups, tt.selects)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := sampleDocument(t)
	for _, f := range []Format{YAML, JSON, TOML} {
		for _, section := range []string{"", "tool.sqlcollections"} {
			t.Run(string(f)+"/"+section, func(t *testing.T) {
				data, err := doc.Marshal(f, section)
				if err != nil {
					t.Fatal(err)
				}
				s, err := ParseSettings(data, f, section)
				if err != nil {
					t.Fatalf("parse back: %v\n%s", err, data)
				}
				for _, c := range doc.Collections {
					if got := s.InsertSQL(c); !reflect.DeepEqual(got, doc.Inserts[c]) {
						t.Errorf("%s inserts = %q, want %q", c, got, doc.Inserts[c])
					}
					if got := s.ReadSQL(c); got != doc.Reads[c] {
						t.Errorf("%s read = %q, want %q", c, got, doc.Reads[c])
					}
				}
				if got := s.Collections(); !reflect.DeepEqual(got, []string{"about", "blog"}) {
					t.Errorf("collections = %v", got)
				}
			})
		}
	}
}

func TestMarshalKeepsCollectionOrder(t *testing.T) {
	doc := sampleDocument(t)
	for _, f := range []Format{YAML, JSON} {
		data, err := doc.Marshal(f, "")
		if err != nil {
			t.Fatal(err)
		}
		out := string(data)
		if strings.Index(out, "blog") > strings.Index(out, "about") {
			t.Errorf("%s: blog should be written before about:\n%s", f, out)
		}
		if strings.Index(out, InsertKey) > strings.Index(out, ReadKey) {
			t.Errorf("%s: %s should come first", f, InsertKey)
		}
	}
	data, err := doc.Marshal(JSON, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "blog.slug <> ''") {
		t.Errorf("json output should not escape SQL:\n%s", data)
	}
}

func TestParseSettingsStringForm(t *testing.T) {
	data := []byte(`
[tool.sqlcollections.insert_sql]
blog = "INSERT INTO tags (name) VALUES ($1); INSERT INTO blog (slug) VALUES ($1);"

[tool.sqlcollections.read_sql]
blog = "  SELECT blog.slug FROM blog  "
`)
	s, err := ParseSettings(data, TOML, "tool.sqlcollections")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"INSERT INTO tags (name) VALUES ($1)", "INSERT INTO blog (slug) VALUES ($1)"}
	if got := s.InsertSQL("blog"); !reflect.DeepEqual(got, want) {
		t.Errorf("inserts = %q", got)
	}
	if got := s.ReadSQL("blog"); got != "SELECT blog.slug FROM blog" {
		t.Errorf("read = %q", got)
	}
	if s.InsertSQL("missing") != nil || s.ReadSQL("missing") != "" {
		t.Error("unknown collections should be empty")
	}
}

func TestParseSettingsErrors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		section string
	}{
		{"missing section", "insert_sql: {}\n", "tool.x"},
		{"insert not a mapping", "insert_sql: [a]\n", ""},
		{"read not a string", "read_sql:\n  blog: [a]\n", ""},
		{"insert wrong type", "insert_sql:\n  blog: 3\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSettings([]byte(tt.data), YAML, tt.section); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFindFile(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "a", ProjectFile)
	if err := os.WriteFile(want, []byte("schema: db.sql\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FindFile(deep, ProjectFile)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("FindFile = %s, want %s", got, want)
	}
	if _, err := FindFile(deep, "nope.yaml"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	p, err := LoadProject(filepath.Join(dir, ProjectFile))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p, DefaultProject()) {
		t.Errorf("missing file should yield defaults, got %+v", p)
	}

	path := filepath.Join(dir, ProjectFile)
	body := "schema: db/schema.sql\nformat: toml\nsection: tool.sqlcollections\norder_columns: [posted]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err = LoadProject(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Schema != "db/schema.sql" || p.Format != "toml" || p.Dialect != "postgres" || p.OrderColumns[0] != "posted" {
		t.Errorf("project = %+v", p)
	}

	if err := os.WriteFile(path, []byte("format: xml\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProject(path); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("insert_sql: {}"))
	if a != Fingerprint([]byte("insert_sql: {}")) {
		t.Error("fingerprint should be stable")
	}
	if a == Fingerprint([]byte("read_sql: {}")) {
		t.Error("different content should hash differently")
	}
}

func TestFormats(t *testing.T) {
	if f, err := ParseFormat("YML"); err != nil || f != YAML {
		t.Errorf("ParseFormat(YML) = %s, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml is not a format")
	}
	if FormatOf("pyproject.toml") != TOML || FormatOf("out.json") != JSON || FormatOf("out") != YAML {
		t.Error("FormatOf guessed wrong")
	}
}
