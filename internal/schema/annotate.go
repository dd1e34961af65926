package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Annotate returns content with the marker above the named table set to kind.
// An existing marker line is rewritten in place and keeps its parent argument;
// Unclassified removes it. Everything else in content is left untouched.
func Annotate(content, table string, kind TableKind) (string, error) {
	src := newSource(content)
	stmts, err := src.statements()
	if err != nil {
		return "", err
	}
	for _, st := range stmts {
		if st.name != table {
			continue
		}
		mk, err := src.marker(st)
		if err != nil && !errors.Is(err, ErrUnknownMarker) {
			return "", err
		}
		if mk.line > 0 {
			from, to := src.lineBounds(mk.line)
			if kind == Unclassified {
				if to < len(content) && content[to] == '\r' {
					to++
				}
				if to < len(content) && content[to] == '\n' {
					to++
				}
				return content[:from] + content[to:], nil
			}
			line := content[from:to]
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			return content[:from] + indent + markerLine(kind, mk.parent) + content[to:], nil
		}
		if kind == Unclassified {
			return content, nil
		}
		ls := src.lineStart[st.line-1]
		prefix := content[ls:st.start]
		if strings.TrimSpace(prefix) == "" {
			return content[:ls] + prefix + markerLine(kind, "") + "\n" + content[ls:], nil
		}
		return content[:st.start] + "\n" + markerLine(kind, "") + "\n" + content[st.start:], nil
	}
	return "", fmt.Errorf("annotate: table %q not found", table)
}

func markerLine(kind TableKind, parent string) string {
	if parent != "" {
		return "-- @" + kind.String() + " " + parent
	}
	return "-- @" + kind.String()
}
