package generator

import (
	"fmt"
	"strings"
)

// Dialect selects placeholder and aggregate syntax.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// ParseDialect accepts the dialect names used on the command line.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown dialect %q (want postgres or sqlite)", s)
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d == SQLite {
		return "?"
	}
	return fmt.Sprintf("$%d", n)
}

// Aggregate wraps expr in a distinct set aggregation.
func (d Dialect) Aggregate(expr string) string {
	if d == SQLite {
		return "json_group_array(DISTINCT " + expr + ")"
	}
	return "array_agg(DISTINCT " + expr + ")"
}
