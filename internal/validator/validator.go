package validator

import (
	"fmt"
	"sort"

	"github.com/satyammistari/sqlcollections/internal/relations"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

// Lint returns non-fatal warnings about a schema that parsed and analyzed
// cleanly but will probably not generate what its author expects.
func Lint(s *schema.Schema, g *relations.Graph) []string {
	var warns []string
	collections := g.OfKind(schema.Collection)
	if len(collections) == 0 {
		warns = append(warns, "no @collection tables: nothing will be generated")
	}

	reached := make(map[string]bool)
	farSides := make(map[string]bool)
	for _, c := range collections {
		reached[c.Name] = true
		for _, d := range g.Dependencies(c.Name) {
			reached[d] = true
		}
		for _, j := range g.Participants(c.Name) {
			reached[j.Table] = true
			_, far, _ := j.Bridge(c.Name)
			farSides[far.To] = true
			for _, d := range g.Dependencies(j.Table) {
				reached[d] = true
			}
		}
		if len(c.PrimaryKeys()) == 0 {
			warns = append(warns, fmt.Sprintf("collection %s has no primary key: reads are ordered by its first column", c.Name))
		}
	}

	for _, t := range s.Tables {
		if t.Kind == schema.Unclassified && !g.IsJunction(t.Name) && !reached[t.Name] {
			warns = append(warns, fmt.Sprintf("table %s (line %d) is unclassified and no collection reaches it: it will be skipped", t.Name, t.Line))
		}
		if t.Parent != "" {
			switch p := s.Table(t.Parent); {
			case p == nil:
				warns = append(warns, fmt.Sprintf("table %s: marker names unknown parent %s", t.Name, t.Parent))
			case g.Kind(p.Name) != schema.Collection:
				warns = append(warns, fmt.Sprintf("table %s: marker parent %s is %s, not a collection", t.Name, p.Name, g.Kind(p.Name)))
			}
		}
		for _, c := range t.Columns {
			if c.Aggregate && !farSides[t.Name] {
				warns = append(warns, fmt.Sprintf("%s.%s is @aggregate but %s is never reached through a junction", t.Name, c.Name, t.Name))
			}
			if c.Aggregate && c.Ignored {
				warns = append(warns, fmt.Sprintf("%s.%s is both ignored and @aggregate: it will not be selected", t.Name, c.Name))
			}
		}
	}
	return warns
}

// ValidateRow checks one content entry against the tables of an insert
// group: keys that match no column, and collection columns with no value.
func ValidateRow(tables []*schema.Table, row map[string]any) []string {
	var errs []string
	known := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.InsertColumns() {
			known[c.Name] = true
		}
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[k] {
			errs = append(errs, fmt.Sprintf("%s: no column in this collection", k))
		}
	}
	if len(tables) == 0 {
		return errs
	}
	coll := tables[len(tables)-1]
	for _, c := range coll.InsertColumns() {
		if v, ok := row[c.Name]; !ok || v == nil {
			errs = append(errs, fmt.Sprintf("%s: missing value for %s.%s", c.Name, coll.Name, c.Name))
		}
	}
	return errs
}

// ValidateRows runs ValidateRow on each row and returns all errors.
func ValidateRows(tables []*schema.Table, rows []map[string]any) []string {
	var errs []string
	for i, row := range rows {
		rowErrs := ValidateRow(tables, row)
		for _, e := range rowErrs {
			errs = append(errs, fmt.Sprintf("row %d: %s", i+1, e))
		}
	}
	return errs
}
