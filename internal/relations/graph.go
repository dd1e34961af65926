// Package relations derives the foreign-key graph of a parsed schema: edges,
// junction tables, per-collection dependencies and cycle checks.
package relations

import (
	"github.com/satyammistari/sqlcollections/internal/schema"
)

// Edge is one foreign key: From.Column references To.ToColumn.
type Edge struct {
	From     string
	Column   string
	To       string
	ToColumn string
}

// Self reports whether the edge points back at its own table.
func (e Edge) Self() bool { return e.From == e.To }

// Junction is a bridge table realizing a many-to-many relationship.
// Left and Right are its first two foreign keys to other tables.
type Junction struct {
	Table    string
	Left     Edge
	Right    Edge
	Inferred bool // no @junction marker; detected from the column shape
}

// Bridge returns the edge of j pointing at table and the edge leading to
// the other side. ok is false when j does not reference table.
func (j Junction) Bridge(table string) (near, far Edge, ok bool) {
	switch table {
	case j.Left.To:
		return j.Left, j.Right, true
	case j.Right.To:
		return j.Right, j.Left, true
	}
	return Edge{}, Edge{}, false
}

// Graph holds name-keyed adjacency lists over a schema. It never owns the
// tables and is not modified after Analyze returns.
type Graph struct {
	schema    *schema.Schema
	out       map[string][]Edge
	in        map[string][]Edge
	junctions map[string]Junction
}

func (g *Graph) Schema() *schema.Schema { return g.schema }

// Edges returns the foreign keys declared by table, in column order.
// Self references are included; use Edge.Self to skip them.
func (g *Graph) Edges(table string) []Edge { return g.out[table] }

// Referrers returns the foreign keys pointing at table, in source order.
func (g *Graph) Referrers(table string) []Edge { return g.in[table] }

func (g *Graph) IsJunction(table string) bool {
	_, ok := g.junctions[table]
	return ok
}

func (g *Graph) Junction(table string) (Junction, bool) {
	j, ok := g.junctions[table]
	return j, ok
}

// Kind returns the effective kind of table: Junction for explicit and
// inferred junctions, the marker kind otherwise.
func (g *Graph) Kind(table string) schema.TableKind {
	if g.IsJunction(table) {
		return schema.Junction
	}
	if t := g.schema.Table(table); t != nil {
		return t.Kind
	}
	return schema.Unclassified
}

// OfKind returns tables whose effective kind is k, in source order.
func (g *Graph) OfKind(k schema.TableKind) []*schema.Table {
	var out []*schema.Table
	for _, t := range g.schema.Tables {
		if g.Kind(t.Name) == k {
			out = append(out, t)
		}
	}
	return out
}

// Dependencies returns every table reachable from table through outgoing
// foreign keys, self edges skipped, in source order.
func (g *Graph) Dependencies(table string) []string {
	seen := map[string]bool{table: true}
	var visit func(name string)
	visit = func(name string) {
		for _, e := range g.out[name] {
			if e.Self() || seen[e.To] {
				continue
			}
			seen[e.To] = true
			visit(e.To)
		}
	}
	visit(table)
	delete(seen, table)
	return g.inSourceOrder(seen)
}

// Participants returns the junctions bridging table to another table, in
// source order.
func (g *Graph) Participants(table string) []Junction {
	var out []Junction
	for _, t := range g.schema.Tables {
		j, ok := g.junctions[t.Name]
		if !ok {
			continue
		}
		if _, _, ok := j.Bridge(table); ok {
			out = append(out, j)
		}
	}
	return out
}

func (g *Graph) inSourceOrder(set map[string]bool) []string {
	var out []string
	for _, t := range g.schema.Tables {
		if set[t.Name] {
			out = append(out, t.Name)
		}
	}
	return out
}
