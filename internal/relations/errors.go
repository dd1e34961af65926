package relations

import (
	"fmt"
	"strings"
)

// UnresolvedReferenceError reports a REFERENCES clause whose target table or
// column does not exist in the schema.
type UnresolvedReferenceError struct {
	Table        string
	Column       string
	Target       string
	TargetColumn string
	Line         int
	MissingTable bool // false when the table exists but the column does not
}

func (e *UnresolvedReferenceError) Error() string {
	prefix := ""
	if e.Line > 0 {
		prefix = fmt.Sprintf("line %d: ", e.Line)
	}
	if e.MissingTable {
		return fmt.Sprintf("%s%s.%s references unknown table %s", prefix, e.Table, e.Column, e.Target)
	}
	return fmt.Sprintf("%s%s.%s references unknown column %s.%s", prefix, e.Table, e.Column, e.Target, e.TargetColumn)
}

// CyclicDependencyError reports tables whose foreign keys form a loop, so no
// insert order exists. Tables lists the loop in traversal order.
type CyclicDependencyError struct {
	Tables []string
	Reason string
}

func (e *CyclicDependencyError) Error() string {
	loop := strings.Join(e.Tables, " -> ")
	if len(e.Tables) > 0 {
		loop += " -> " + e.Tables[0]
	}
	if e.Reason != "" {
		return fmt.Sprintf("dependency cycle: %s (%s)", loop, e.Reason)
	}
	return "dependency cycle: " + loop
}
