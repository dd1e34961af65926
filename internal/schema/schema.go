package schema

import (
	"fmt"
	"strings"
)

// TableKind is the classification a marker comment gives a table.
type TableKind int

const (
	Unclassified TableKind = iota
	Collection
	Attribute
	Junction
)

var kindNames = []string{"unclassified", "collection", "attribute", "junction"}

func (k TableKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("TableKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a marker word (with or without the leading @) to a TableKind.
// Only the marker vocabulary is accepted; "unclassified" is not a marker.
func ParseKind(s string) (TableKind, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@")) {
	case "collection":
		return Collection, nil
	case "attribute":
		return Attribute, nil
	case "junction":
		return Junction, nil
	}
	return Unclassified, fmt.Errorf("%w: %q", ErrUnknownMarker, s)
}

// Table represents one parsed CREATE TABLE statement.
type Table struct {
	Name      string
	Kind      TableKind
	Parent    string // optional marker argument, e.g. "-- @attribute blog"
	Columns   []Column
	Line      int    // 1-based line of the CREATE TABLE keyword
	Statement string // statement text as written, used in diagnostics
}

// Column represents a table column and the markers attached to it.
type Column struct {
	Name       string
	Type       string // raw declared type, e.g. "VARCHAR(255)"
	PrimaryKey bool
	Ignored    bool // "-- ignore": left out of generated INSERTs
	Aggregate  bool // "-- @aggregate": array-aggregated across a junction
	ForeignKey *ForeignKey
	Line       int
}

// ForeignKey describes a reference to another table.
type ForeignKey struct {
	RefTable  string
	RefColumn string
}

// DependsOn returns table names this table's FKs reference, self-references excluded.
func (t *Table) DependsOn() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range t.Columns {
		if c.ForeignKey == nil || c.ForeignKey.RefTable == t.Name || seen[c.ForeignKey.RefTable] {
			continue
		}
		seen[c.ForeignKey.RefTable] = true
		out = append(out, c.ForeignKey.RefTable)
	}
	return out
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// InsertColumns returns the non-ignored columns in declared order.
func (t *Table) InsertColumns() []Column {
	var out []Column
	for _, c := range t.Columns {
		if !c.Ignored {
			out = append(out, c)
		}
	}
	return out
}

// PrimaryKeys returns the names of primary key columns in declared order.
func (t *Table) PrimaryKeys() []string {
	var out []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}

// ForeignKeyColumns returns the columns carrying a REFERENCES clause.
func (t *Table) ForeignKeyColumns() []Column {
	var out []Column
	for _, c := range t.Columns {
		if c.ForeignKey != nil {
			out = append(out, c)
		}
	}
	return out
}

// Schema is the result of one parse pass. It is not modified after Parse
// returns, so it may be shared between goroutines.
type Schema struct {
	Tables []*Table // source order
	byName map[string]*Table
	index  map[string]int
}

func newSchema() *Schema {
	return &Schema{byName: make(map[string]*Table), index: make(map[string]int)}
}

func (s *Schema) add(t *Table) {
	s.index[t.Name] = len(s.Tables)
	s.byName[t.Name] = t
	s.Tables = append(s.Tables, t)
}

// Table returns a table by name, or nil.
func (s *Schema) Table(name string) *Table {
	return s.byName[name]
}

// Position returns the source position of a table (0-based), or -1.
func (s *Schema) Position(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// OfKind returns the tables whose marker is k, in source order.
func (s *Schema) OfKind(k TableKind) []*Table {
	var out []*Table
	for _, t := range s.Tables {
		if t.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// Names returns table names in source order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		out[i] = t.Name
	}
	return out
}
