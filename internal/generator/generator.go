// Package generator turns an analyzed schema into parameterized INSERT
// templates and JOIN-based SELECT queries, one set per collection.
package generator

import (
	"github.com/satyammistari/sqlcollections/internal/relations"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

// Config holds generator options.
type Config struct {
	Dialect Dialect
	// OrderColumns lists column names, most preferred first, that make a
	// collection's SELECT order by that column descending.
	OrderColumns []string
	// IncludeUnclassified treats unmarked, non-junction tables as collections.
	IncludeUnclassified bool
}

// DefaultConfig returns config with defaults.
func DefaultConfig() Config {
	return Config{
		Dialect:      Postgres,
		OrderColumns: []string{"date", "published_at", "publish_date", "created_at", "updated_at", "timestamp"},
	}
}

// Generator reads a Graph and never modifies it, so one Generator may build
// INSERT and SELECT output from separate goroutines.
type Generator struct {
	graph *relations.Graph
	cfg   Config
}

// New returns a Generator with the given config. Zero fields fall back to
// DefaultConfig.
func New(g *relations.Graph, cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.Dialect == "" {
		cfg.Dialect = def.Dialect
	}
	if cfg.OrderColumns == nil {
		cfg.OrderColumns = def.OrderColumns
	}
	return &Generator{graph: g, cfg: cfg}
}

// Collections returns the tables that get their own INSERT group and SELECT,
// in source order.
func (g *Generator) Collections() []*schema.Table {
	var out []*schema.Table
	for _, t := range g.graph.Schema().Tables {
		switch g.graph.Kind(t.Name) {
		case schema.Collection:
			out = append(out, t)
		case schema.Unclassified:
			if g.cfg.IncludeUnclassified {
				out = append(out, t)
			}
		}
	}
	return out
}
