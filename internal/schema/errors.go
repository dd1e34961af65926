package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedTable     = errors.New("malformed CREATE TABLE statement")
	ErrMalformedColumn    = errors.New("malformed column definition")
	ErrMalformedReference = errors.New("malformed REFERENCES clause")
	ErrDuplicateTable     = errors.New("duplicate table name")
	ErrDuplicateColumn    = errors.New("duplicate column name")
	ErrUnknownMarker      = errors.New("unknown marker")
	ErrInvalidJunction    = errors.New("invalid junction table")
)

// SchemaError reports a problem with one statement of the input schema.
// Err is one of the Err* sentinels above; use errors.Is to tell them apart.
type SchemaError struct {
	Table     string
	Line      int
	Statement string
	Err       error
	Detail    string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, "table %s: ", e.Table)
	}
	b.WriteString(e.Err.Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Snippet returns the first line of the offending statement.
func (e *SchemaError) Snippet() string {
	s := strings.TrimSpace(e.Statement)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
