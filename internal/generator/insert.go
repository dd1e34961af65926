package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satyammistari/sqlcollections/internal/relations"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

// InsertGroup is the ordered list of INSERT templates that seeds one
// collection. Tables[i] is the table Statements[i] writes to.
type InsertGroup struct {
	Collection string
	Tables     []*schema.Table
	Statements []string
}

// Inserts returns one group per collection, in source order.
func (g *Generator) Inserts() ([]InsertGroup, error) {
	var out []InsertGroup
	for _, c := range g.Collections() {
		grp, err := g.InsertGroup(c.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, grp)
	}
	return out, nil
}

// InsertGroup orders the tables feeding collection and renders their INSERTs.
// Referenced tables come first, junctions after the tables they bridge and
// the collection itself last.
func (g *Generator) InsertGroup(collection string) (InsertGroup, error) {
	s := g.graph.Schema()
	coll := s.Table(collection)
	if coll == nil {
		return InsertGroup{}, fmt.Errorf("insert: unknown collection %q", collection)
	}
	order, err := g.insertOrder(collection)
	if err != nil {
		return InsertGroup{}, err
	}
	grp := InsertGroup{Collection: collection}
	for _, name := range append(order, collection) {
		t := s.Table(name)
		grp.Tables = append(grp.Tables, t)
		grp.Statements = append(grp.Statements, g.InsertSQL(t))
	}
	return grp, nil
}

// InsertSQL renders the parameterized INSERT for t over its non-ignored
// columns in declared order.
func (g *Generator) InsertSQL(t *schema.Table) string {
	cols := t.InsertColumns()
	if len(cols) == 0 {
		return "INSERT INTO " + t.Name + " DEFAULT VALUES"
	}
	names := make([]string, len(cols))
	params := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		params[i] = g.cfg.Dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(names, ", "), strings.Join(params, ", "))
}

// members collects every table a collection's insert group must seed before
// the collection row itself.
func (g *Generator) members(collection string) map[string]bool {
	set := make(map[string]bool)
	for _, d := range g.graph.Dependencies(collection) {
		set[d] = true
	}
	for _, j := range g.graph.Participants(collection) {
		set[j.Table] = true
		for _, d := range g.graph.Dependencies(j.Table) {
			set[d] = true
		}
	}
	delete(set, collection)
	return set
}

// insertOrder sorts the members of collection level by level (Kahn). Each
// round emits every ready non-junction table, or the ready junctions when no
// other table is ready; ties follow source order.
func (g *Generator) insertOrder(collection string) ([]string, error) {
	s := g.graph.Schema()
	members := g.members(collection)

	pending := make(map[string]int)
	dependents := make(map[string][]string)
	for m := range members {
		pending[m] = 0
	}
	for _, m := range sortedByPosition(s, keys(members)) {
		seen := make(map[string]bool)
		for _, e := range g.graph.Edges(m) {
			switch {
			case e.Self():
				continue
			case e.To == collection:
				if !g.graph.IsJunction(m) {
					return nil, &relations.CyclicDependencyError{
						Tables: []string{collection, m},
						Reason: fmt.Sprintf("%s.%s references collection %s, which is inserted last", m, e.Column, collection),
					}
				}
				continue
			case !members[e.To] || seen[e.To]:
				continue
			}
			seen[e.To] = true
			pending[m]++
			dependents[e.To] = append(dependents[e.To], m)
		}
	}

	var order []string
	for len(pending) > 0 {
		var ready, readyJunctions []string
		for m, n := range pending {
			if n > 0 {
				continue
			}
			if g.graph.IsJunction(m) {
				readyJunctions = append(readyJunctions, m)
			} else {
				ready = append(ready, m)
			}
		}
		if len(ready) == 0 {
			ready = readyJunctions
		}
		if len(ready) == 0 {
			return nil, &relations.CyclicDependencyError{Tables: sortedByPosition(s, keys(pending))}
		}
		ready = sortedByPosition(s, ready)
		for _, m := range ready {
			delete(pending, m)
			for _, d := range dependents[m] {
				pending[d]--
			}
		}
		order = append(order, ready...)
	}
	return order, nil
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func sortedByPosition(s *schema.Schema, names []string) []string {
	sort.Slice(names, func(i, j int) bool { return s.Position(names[i]) < s.Position(names[j]) })
	return names
}
