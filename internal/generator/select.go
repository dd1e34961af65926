package generator

import (
	"fmt"
	"strings"

	"github.com/satyammistari/sqlcollections/internal/schema"
)

// SelectQuery is the read query for one collection.
type SelectQuery struct {
	Collection string
	SQL        string
}

// EmptySelectError reports a collection whose columns are all ignored.
type EmptySelectError struct {
	Collection string
}

func (e *EmptySelectError) Error() string {
	return fmt.Sprintf("collection %s has no selectable columns (every column is marked ignore)", e.Collection)
}

// Selects returns one query per collection, in source order.
func (g *Generator) Selects() ([]SelectQuery, error) {
	var out []SelectQuery
	for _, c := range g.Collections() {
		q, err := g.Select(c.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}

type selectItem struct {
	expr      string
	alias     string
	aggregate bool
}

func (it selectItem) String() string {
	if it.alias == "" {
		return it.expr
	}
	return it.expr + " AS " + it.alias
}

// Select builds the read query for collection: its own non-ignored columns,
// a LEFT JOIN per foreign key, and a two-hop LEFT JOIN per junction with
// @aggregate columns folded into arrays.
func (g *Generator) Select(collection string) (SelectQuery, error) {
	t := g.graph.Schema().Table(collection)
	if t == nil {
		return SelectQuery{}, fmt.Errorf("select: unknown collection %q", collection)
	}
	cols := t.InsertColumns()
	if len(cols) == 0 {
		return SelectQuery{}, &EmptySelectError{Collection: collection}
	}

	var items []selectItem
	var joins []string
	used := map[string]bool{t.Name: true}
	names := make(map[string]bool) // result column names
	for _, c := range cols {
		items = append(items, selectItem{expr: t.Name + "." + c.Name})
		names[c.Name] = true
	}
	// label returns alias_col, or alias_via_col when that name is taken.
	label := func(alias, via, col string) string {
		name := alias + "_" + col
		if names[name] {
			name = alias + "_" + via + "_" + col
		}
		for n := 2; names[name]; n++ {
			name = fmt.Sprintf("%s_%s_%s_%d", alias, via, col, n)
		}
		names[name] = true
		return name
	}

	for _, e := range g.graph.Edges(t.Name) {
		if e.Self() || g.graph.IsJunction(e.To) {
			continue
		}
		alias := e.To
		if used[alias] {
			alias = e.To + "_" + e.Column
		}
		used[alias] = true
		joins = append(joins, fmt.Sprintf("LEFT JOIN %s ON %s.%s = %s.%s",
			tableRef(e.To, alias), t.Name, e.Column, alias, e.ToColumn))
		for _, c := range g.graph.Schema().Table(e.To).InsertColumns() {
			if c.PrimaryKey {
				continue
			}
			items = append(items, selectItem{expr: alias + "." + c.Name, alias: label(alias, e.Column, c.Name)})
		}
	}

	for _, j := range g.graph.Participants(t.Name) {
		near, far, _ := j.Bridge(t.Name)
		jAlias := j.Table
		if used[jAlias] {
			jAlias = j.Table + "_" + near.Column
		}
		used[jAlias] = true
		farAlias := far.To
		if used[farAlias] {
			farAlias = j.Table + "_" + far.To
		}
		used[farAlias] = true
		joins = append(joins,
			fmt.Sprintf("LEFT JOIN %s ON %s.%s = %s.%s", tableRef(j.Table, jAlias), t.Name, near.ToColumn, jAlias, near.Column),
			fmt.Sprintf("LEFT JOIN %s ON %s.%s = %s.%s", tableRef(far.To, farAlias), jAlias, far.Column, farAlias, far.ToColumn),
		)
		for _, c := range g.graph.Schema().Table(far.To).InsertColumns() {
			if c.PrimaryKey {
				continue
			}
			expr := farAlias + "." + c.Name
			if c.Aggregate {
				items = append(items, selectItem{expr: g.cfg.Dialect.Aggregate(expr), alias: label(farAlias, j.Table, c.Name), aggregate: true})
				continue
			}
			items = append(items, selectItem{expr: expr, alias: label(farAlias, j.Table, c.Name)})
		}
	}

	order, desc := g.orderColumn(t)
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.String())
	}
	b.WriteString(" FROM ")
	b.WriteString(t.Name)
	for _, j := range joins {
		b.WriteString(" ")
		b.WriteString(j)
	}
	if group := groupBy(t, items, order); len(group) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(group, ", "))
	}
	b.WriteString(" ORDER BY ")
	for i, o := range order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(o)
		if desc {
			b.WriteString(" DESC")
		}
	}
	return SelectQuery{Collection: collection, SQL: b.String()}, nil
}

func tableRef(table, alias string) string {
	if table == alias {
		return table
	}
	return table + " AS " + alias
}

// orderColumn picks the ORDER BY expressions: the first configured temporal
// column present (descending), else the primary key, else the first column.
func (g *Generator) orderColumn(t *schema.Table) ([]string, bool) {
	for _, name := range g.cfg.OrderColumns {
		if t.Column(name) != nil {
			return []string{t.Name + "." + name}, true
		}
	}
	if pks := t.PrimaryKeys(); len(pks) > 0 {
		out := make([]string, len(pks))
		for i, pk := range pks {
			out[i] = t.Name + "." + pk
		}
		return out, false
	}
	return []string{t.Name + "." + t.Columns[0].Name}, false
}

// groupBy returns the GROUP BY list when any item aggregates: every plain
// expression, then the primary key and order columns if missing.
func groupBy(t *schema.Table, items []selectItem, order []string) []string {
	agg := false
	for _, it := range items {
		if it.aggregate {
			agg = true
			break
		}
	}
	if !agg {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(expr string) {
		if !seen[expr] {
			seen[expr] = true
			out = append(out, expr)
		}
	}
	for _, it := range items {
		if !it.aggregate {
			add(it.expr)
		}
	}
	for _, pk := range t.PrimaryKeys() {
		add(t.Name + "." + pk)
	}
	for _, o := range order {
		add(o)
	}
	return out
}
