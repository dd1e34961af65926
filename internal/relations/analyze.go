package relations

import (
	"fmt"

	"github.com/satyammistari/sqlcollections/internal/schema"
)

// Analyze resolves every foreign key in s, classifies junction tables and
// rejects dependency cycles. Self references are allowed.
func Analyze(s *schema.Schema) (*Graph, error) {
	g := &Graph{
		schema:    s,
		out:       make(map[string][]Edge),
		in:        make(map[string][]Edge),
		junctions: make(map[string]Junction),
	}
	for _, t := range s.Tables {
		for _, c := range t.ForeignKeyColumns() {
			fk := c.ForeignKey
			target := s.Table(fk.RefTable)
			if target == nil || target.Column(fk.RefColumn) == nil {
				return nil, &UnresolvedReferenceError{
					Table:        t.Name,
					Column:       c.Name,
					Target:       fk.RefTable,
					TargetColumn: fk.RefColumn,
					Line:         c.Line,
					MissingTable: target == nil,
				}
			}
			e := Edge{From: t.Name, Column: c.Name, To: fk.RefTable, ToColumn: fk.RefColumn}
			g.out[t.Name] = append(g.out[t.Name], e)
			g.in[e.To] = append(g.in[e.To], e)
		}
	}
	for _, t := range s.Tables {
		j, ok, err := g.classify(t)
		if err != nil {
			return nil, err
		}
		if ok {
			g.junctions[t.Name] = j
		}
	}
	if cycle := g.findCycle(); cycle != nil {
		return nil, &CyclicDependencyError{Tables: cycle}
	}
	return g, nil
}

// classify decides whether t is a junction. A @junction marker always wins;
// an unmarked table qualifies when it holds exactly two foreign keys to other
// tables and nothing else worth inserting.
func (g *Graph) classify(t *schema.Table) (Junction, bool, error) {
	var bridge []Edge
	for _, e := range g.out[t.Name] {
		if !e.Self() {
			bridge = append(bridge, e)
		}
	}
	switch t.Kind {
	case schema.Junction:
		if len(bridge) < 2 {
			return Junction{}, false, &schema.SchemaError{
				Table:     t.Name,
				Line:      t.Line,
				Statement: t.Statement,
				Err:       schema.ErrInvalidJunction,
				Detail:    fmt.Sprintf("@junction needs two foreign keys to other tables, found %d", len(bridge)),
			}
		}
		return Junction{Table: t.Name, Left: bridge[0], Right: bridge[1]}, true, nil
	case schema.Unclassified:
		if len(bridge) != 2 || len(g.out[t.Name]) != 2 {
			return Junction{}, false, nil
		}
		for _, c := range t.Columns {
			if c.ForeignKey == nil && !c.Ignored && !c.PrimaryKey {
				return Junction{}, false, nil
			}
		}
		return Junction{Table: t.Name, Left: bridge[0], Right: bridge[1], Inferred: true}, true, nil
	}
	return Junction{}, false, nil
}

// findCycle runs a depth-first walk over non-self edges in source order and
// returns the first loop it meets, or nil.
func (g *Graph) findCycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int)
	var stack []string
	var cycle []string
	var visit func(name string) bool
	visit = func(name string) bool {
		state[name] = active
		stack = append(stack, name)
		for _, e := range g.out[name] {
			if e.Self() {
				continue
			}
			switch state[e.To] {
			case active:
				for i, n := range stack {
					if n == e.To {
						cycle = append([]string(nil), stack[i:]...)
						break
					}
				}
				return true
			case unvisited:
				if visit(e.To) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return false
	}
	for _, t := range g.schema.Tables {
		if state[t.Name] == unvisited && visit(t.Name) {
			return cycle
		}
	}
	return nil
}
