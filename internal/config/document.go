// Package config reshapes generated SQL into the settings document, encodes
// it as YAML, JSON or TOML, and reads it back by collection name.
package config

import (
	"fmt"

	"github.com/satyammistari/sqlcollections/internal/generator"
)

// Document keys read back by LoadSettings.
const (
	InsertKey = "insert_sql"
	ReadKey   = "read_sql"
)

// Document is the generated settings: per collection, the ordered INSERT
// templates and the read query.
type Document struct {
	Collections []string // source order
	Inserts     map[string][]string
	Reads       map[string]string
}

// Emit pairs insert groups with select queries by collection name. Every
// collection must appear exactly once on each side.
func Emit(groups []generator.InsertGroup, selects []generator.SelectQuery) (*Document, error) {
	doc := &Document{
		Inserts: make(map[string][]string, len(groups)),
		Reads:   make(map[string]string, len(selects)),
	}
	for _, g := range groups {
		if _, dup := doc.Inserts[g.Collection]; dup {
			return nil, fmt.Errorf("emit: collection %s has two insert groups", g.Collection)
		}
		if len(g.Statements) == 0 {
			return nil, fmt.Errorf("emit: collection %s has an empty insert group", g.Collection)
		}
		doc.Collections = append(doc.Collections, g.Collection)
		doc.Inserts[g.Collection] = append([]string(nil), g.Statements...)
	}
	for _, q := range selects {
		if _, ok := doc.Inserts[q.Collection]; !ok {
			return nil, fmt.Errorf("emit: select for %s has no insert group", q.Collection)
		}
		if _, dup := doc.Reads[q.Collection]; dup {
			return nil, fmt.Errorf("emit: collection %s has two select queries", q.Collection)
		}
		doc.Reads[q.Collection] = q.SQL
	}
	for _, c := range doc.Collections {
		if _, ok := doc.Reads[c]; !ok {
			return nil, fmt.Errorf("emit: collection %s has no select query", c)
		}
	}
	return doc, nil
}
