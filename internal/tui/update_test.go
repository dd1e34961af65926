package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

const classifySchema = `-- @collection
CREATE TABLE blog (
  id INTEGER PRIMARY KEY,
  title TEXT
);

CREATE TABLE notes (
  id INTEGER PRIMARY KEY,
  body TEXT
);

CREATE TABLE pages (
  id INTEGER PRIMARY KEY,
  body TEXT
);
`

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func loaded(t *testing.T, path string) Model {
	t.Helper()
	res, err := pipeline.Run(context.Background(), classifySchema, pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(Config{SchemaPath: path})
	return send(t, m,
		tea.WindowSizeMsg{Width: 120, Height: 40},
		loadedMsg{path: path, content: classifySchema, res: res},
	)
}

func TestLoaded(t *testing.T) {
	m := loaded(t, "schema.sql")
	if m.Loading {
		t.Error("still loading")
	}
	if got := m.Collections(); len(got) != 1 || got[0] != "blog" {
		t.Errorf("collections = %v", got)
	}
	if len(m.Pending) != 2 || m.Pending[0].Table != "notes" || m.Pending[1].Table != "pages" {
		t.Errorf("pending = %+v", m.Pending)
	}
	if !strings.Contains(m.View(), "INSERT INTO blog") {
		t.Error("collections tab should show the insert group")
	}
}

func TestTabs(t *testing.T) {
	m := loaded(t, "schema.sql")
	m = send(t, m, key("tab"))
	if m.ActiveTab != TabClassify {
		t.Fatalf("tab = %v", m.ActiveTab)
	}
	m = send(t, m, key("tab"))
	if m.ActiveTab != TabHelp {
		t.Fatalf("tab = %v", m.ActiveTab)
	}
	m = send(t, m, key("tab"), key("2"))
	if m.ActiveTab != TabClassify {
		t.Fatalf("tab = %v", m.ActiveTab)
	}
}

func TestClassify(t *testing.T) {
	m := loaded(t, "schema.sql")
	m = send(t, m, key("2"), key("w"))
	if m.StatusKind != "warning" {
		t.Errorf("writing with nothing assigned should warn, got %q", m.StatusMsg)
	}

	m = send(t, m, key("c"), key("a"))
	if m.Pending[0].Kind != schema.Collection || m.Pending[1].Kind != schema.Attribute {
		t.Fatalf("pending = %+v", m.Pending)
	}
	m = send(t, m, key("up"), key("s"))
	if m.Pending[0].Kind != schema.Unclassified || m.Assigned() != 1 {
		t.Errorf("skip should clear the kind: %+v", m.Pending)
	}
}

func TestWriteMarkers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	if err := os.WriteFile(path, []byte(classifySchema), 0o644); err != nil {
		t.Fatal(err)
	}
	m := loaded(t, path)
	m = send(t, m, key("2"), key("c"), key("a"))

	msg := writeMarkers(path, m.Content, m.Pending, m.Config.Options)()
	lm, ok := msg.(loadedMsg)
	if !ok {
		t.Fatalf("expected loadedMsg, got %#v", msg)
	}
	if lm.written != 2 {
		t.Errorf("written = %d", lm.written)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"-- @collection\nCREATE TABLE notes", "-- @attribute\nCREATE TABLE pages"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("file missing %q:\n%s", want, data)
		}
	}

	m = send(t, m, lm)
	if len(m.Pending) != 0 || len(m.Collections()) != 2 {
		t.Errorf("after write: pending=%+v collections=%v", m.Pending, m.Collections())
	}
}

func TestWriteMarkersRejectsBadJunction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.sql")
	if err := os.WriteFile(path, []byte(classifySchema), 0o644); err != nil {
		t.Fatal(err)
	}
	pending := []Pending{{Table: "notes", Kind: schema.Junction}}
	msg := writeMarkers(path, classifySchema, pending, pipeline.Options{})()
	if _, ok := msg.(errMsg); !ok {
		t.Fatalf("expected errMsg, got %#v", msg)
	}
	data, _ := os.ReadFile(path)
	if string(data) != classifySchema {
		t.Error("schema file should be left untouched")
	}
}
