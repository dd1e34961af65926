package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

type Tab int

const (
	TabCollections Tab = iota
	TabClassify
	TabHelp
	tabCount
)

func (t Tab) String() string {
	return []string{
		" Collections ",
		" Classify ",
		" Help ",
	}[t]
}

// Pending is an unclassified table waiting for a kind. Kind stays
// Unclassified until the user picks one.
type Pending struct {
	Table   string
	Columns int
	FKs     int
	Kind    schema.TableKind
}

type Config struct {
	SchemaPath string
	Options    pipeline.Options
}

type Model struct {
	ActiveTab Tab
	Width     int
	Height    int
	Config    Config

	PathField textinput.Model
	Spinner   spinner.Model
	Loading   bool

	Content string
	Result  *pipeline.Result

	Selected int // collection cursor
	Scroll   int

	Pending []Pending
	Cursor  int

	StatusMsg  string
	StatusKind string
	Err        error
}

func NewModel(cfg Config) Model {
	field := textinput.New()
	field.Placeholder = "schema.sql"
	field.SetValue(cfg.SchemaPath)
	field.Width = 45
	field.Prompt = ""

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Model{
		ActiveTab:  TabCollections,
		Config:     cfg,
		PathField:  field,
		Spinner:    s,
		Loading:    true,
		StatusMsg:  "Loading " + cfg.SchemaPath + "...",
		StatusKind: "info",
	}
}

// SchemaPath returns the path in the edit field, or its placeholder.
func (m Model) SchemaPath() string {
	if v := m.PathField.Value(); v != "" {
		return v
	}
	return m.PathField.Placeholder
}

// Collections returns the collection names of the loaded result.
func (m Model) Collections() []string {
	if m.Result == nil {
		return nil
	}
	return m.Result.Document.Collections
}

// Assigned counts pending tables with a chosen kind.
func (m Model) Assigned() int {
	n := 0
	for _, p := range m.Pending {
		if p.Kind != schema.Unclassified {
			n++
		}
	}
	return n
}

// pendingTables lists tables without a marker that were not inferred as
// junctions.
func pendingTables(res *pipeline.Result) []Pending {
	var out []Pending
	for _, t := range res.Graph.OfKind(schema.Unclassified) {
		out = append(out, Pending{
			Table:   t.Name,
			Columns: len(t.Columns),
			FKs:     len(t.ForeignKeyColumns()),
		})
	}
	return out
}
