package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Parse reads a SQL file and returns its tables in source order.
//
// Only CREATE TABLE statements are understood. A "-- @collection",
// "-- @attribute" or "-- @junction" comment directly above a statement sets
// the table kind; trailing "-- ignore" and "-- @aggregate" comments mark
// columns. Any other @word in those positions is rejected rather than
// silently dropped.
func Parse(content string) (*Schema, error) {
	src := newSource(content)
	stmts, err := src.statements()
	if err != nil {
		return nil, err
	}
	s := newSchema()
	for _, st := range stmts {
		t, err := src.parseTable(st)
		if err != nil {
			return nil, err
		}
		if prev := s.Table(t.Name); prev != nil {
			return nil, &SchemaError{
				Table:     t.Name,
				Line:      t.Line,
				Statement: t.Statement,
				Err:       ErrDuplicateTable,
				Detail:    fmt.Sprintf("first declared on line %d", prev.Line),
			}
		}
		s.add(t)
	}
	return s, nil
}

var (
	createRe = regexp.MustCompile(`(?i)\bCREATE\s+TABLE\b`)
	headerRe = regexp.MustCompile("(?i)^CREATE\\s+TABLE\\s+(?:IF\\s+NOT\\s+EXISTS\\s+)?[\"`]?(\\w+)[\"`]?\\s*\\(")
	markerRe = regexp.MustCompile("^--\\s*@(\\w+)(?:\\s+[\"'`]?(\\w+)[\"'`]?)?")

	constraintRe     = regexp.MustCompile(`(?i)^(CONSTRAINT|PRIMARY\s+KEY|FOREIGN\s+KEY|UNIQUE|CHECK|EXCLUDE)\b`)
	constraintNameRe = regexp.MustCompile("(?i)^CONSTRAINT\\s+[\"`]?\\w+[\"`]?\\s*")
	colDefRe         = regexp.MustCompile("(?s)^[\"`]?(\\w+)[\"`]?(?:\\s+(.*))?$")
	keywordRe        = regexp.MustCompile(`(?i)\b(PRIMARY|NOT|NULL|REFERENCES|DEFAULT|UNIQUE|CHECK|CONSTRAINT|GENERATED|COLLATE|AUTO_INCREMENT|AUTOINCREMENT)\b`)
	pkRe             = regexp.MustCompile(`(?i)\bPRIMARY\s+KEY\b`)
	refKeywordRe     = regexp.MustCompile(`(?i)\bREFERENCES\b`)
	refRe            = regexp.MustCompile("(?i)\\bREFERENCES\\s+[\"`]?(\\w+)[\"`]?\\s*\\(\\s*[\"`]?(\\w+)[\"`]?\\s*\\)")
	tablePKRe        = regexp.MustCompile(`(?is)^PRIMARY\s+KEY\s*\(([^)]*)\)`)
	tableFKRe        = regexp.MustCompile("(?is)^FOREIGN\\s+KEY\\s*\\(\\s*[\"`]?(\\w+)[\"`]?\\s*\\)\\s*REFERENCES\\s+[\"`]?(\\w+)[\"`]?\\s*\\(\\s*[\"`]?(\\w+)[\"`]?\\s*\\)")
)

// source holds the schema text next to a copy in which comments and string
// literals are blanked out, so offsets line up between the two.
type source struct {
	text      string
	code      string
	lineStart []int
	comments  []comment
}

type comment struct {
	off  int
	line int
	text string // text after "--"
}

type statement struct {
	name  string
	start int // offset of CREATE
	open  int // offset of "("
	close int // offset of matching ")"
	end   int // offset past ")" or ";"
	line  int
}

type segment struct{ from, to int }

type marker struct {
	kind   TableKind
	parent string
	line   int // 0 when the table has no marker
}

func newSource(text string) *source {
	src := &source{text: text, lineStart: []int{0}}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			src.lineStart = append(src.lineStart, i+1)
		}
	}
	code := []byte(text)
	for i := 0; i < len(code); {
		switch {
		case code[i] == '-' && i+1 < len(code) && code[i+1] == '-':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text)
			} else {
				end += i
			}
			src.comments = append(src.comments, comment{off: i, line: src.lineOf(i), text: text[i+2 : end]})
			blank(code, i, end)
			i = end
		case code[i] == '/' && i+1 < len(code) && code[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				end = len(text)
			} else {
				end += i + 4
			}
			blank(code, i, end)
			i = end
		case code[i] == '\'':
			j := i + 1
			for j < len(text) {
				if text[j] == '\'' {
					if j+1 < len(text) && text[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			blank(code, i+1, j)
			i = j + 1
		default:
			i++
		}
	}
	src.code = string(code)
	return src
}

func blank(b []byte, from, to int) {
	for k := from; k < to && k < len(b); k++ {
		if b[k] != '\n' {
			b[k] = ' '
		}
	}
}

// lineOf returns the 1-based line holding offset off.
func (src *source) lineOf(off int) int {
	return sort.Search(len(src.lineStart), func(i int) bool { return src.lineStart[i] > off })
}

// lineBounds returns the offsets of line n (1-based) without its line break.
func (src *source) lineBounds(n int) (int, int) {
	from := src.lineStart[n-1]
	to := len(src.text)
	if n < len(src.lineStart) {
		to = src.lineStart[n] - 1
	}
	if to > from && src.text[to-1] == '\r' {
		to--
	}
	return from, to
}

func (src *source) lineText(n int) string {
	from, to := src.lineBounds(n)
	return src.text[from:to]
}

func (src *source) statements() ([]statement, error) {
	var out []statement
	for _, loc := range createRe.FindAllStringIndex(src.code, -1) {
		start := loc[0]
		line := src.lineOf(start)
		if n := len(out); n > 0 && start < out[n-1].end {
			prev := out[n-1]
			return nil, &SchemaError{
				Table:     prev.name,
				Line:      prev.line,
				Statement: src.text[prev.start:prev.end],
				Err:       ErrMalformedTable,
				Detail:    fmt.Sprintf("column list runs into the CREATE TABLE on line %d", line),
			}
		}
		m := headerRe.FindStringSubmatchIndex(src.code[start:])
		if m == nil {
			return nil, &SchemaError{
				Line:      line,
				Statement: src.lineText(line),
				Err:       ErrMalformedTable,
				Detail:    "expected CREATE TABLE <name> (",
			}
		}
		st := statement{
			name:  src.code[start+m[2] : start+m[3]],
			start: start,
			open:  start + m[1] - 1,
			line:  line,
		}
		st.close = matchParen(src.code, st.open)
		if st.close < 0 {
			return nil, &SchemaError{
				Table:     st.name,
				Line:      line,
				Statement: src.text[start:],
				Err:       ErrMalformedTable,
				Detail:    "unterminated column list",
			}
		}
		st.end = st.close + 1
		j := st.end
		for j < len(src.code) && isSpace(src.code[j]) {
			j++
		}
		if j < len(src.code) && src.code[j] == ';' {
			st.end = j + 1
		}
		out = append(out, st)
	}
	return out, nil
}

func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// marker finds the nearest "-- @kind" line in the run of comment and blank
// lines directly above the statement. Block comments belong to that run.
func (src *source) marker(st statement) (marker, error) {
	for n := st.line - 1; n >= 1; n-- {
		from, to := src.lineBounds(n)
		if strings.TrimSpace(src.code[from:to]) != "" {
			break
		}
		text := strings.TrimSpace(src.lineText(n))
		if !strings.HasPrefix(text, "--") || !src.lineComment(from+leadingSpace(src.text[from:to])) {
			continue
		}
		m := markerRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		k, err := ParseKind(m[1])
		if err != nil {
			return marker{line: n}, &SchemaError{
				Table:     st.name,
				Line:      n,
				Statement: text,
				Err:       ErrUnknownMarker,
				Detail:    "@" + m[1] + " (want @collection, @attribute or @junction)",
			}
		}
		return marker{kind: k, parent: m[2], line: n}, nil
	}
	return marker{}, nil
}

// lineComment reports whether a "--" comment starts at off, as opposed to
// "--" text inside a block comment.
func (src *source) lineComment(off int) bool {
	i := sort.Search(len(src.comments), func(i int) bool { return src.comments[i].off >= off })
	return i < len(src.comments) && src.comments[i].off == off
}

func (src *source) segments(from, to int) []segment {
	var out []segment
	depth := 0
	start := from
	for i := from; i < to; i++ {
		switch src.code[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, segment{start, i})
				start = i + 1
			}
		}
	}
	return append(out, segment{start, to})
}

// owner returns the index of the segment whose code sits on the same line
// just before the comment, or -1.
func (src *source) owner(st statement, c comment, segs []segment) int {
	i := c.off - 1
	comma := false
	for ; i > st.open; i-- {
		ch := src.code[i]
		if ch == '\n' {
			return -1
		}
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == ';' || i == st.close {
			continue
		}
		if ch == ',' && !comma {
			comma = true
			continue
		}
		break
	}
	for k, sg := range segs {
		if i >= sg.from && i < sg.to {
			return k
		}
	}
	return -1
}

func (src *source) parseTable(st statement) (*Table, error) {
	t := &Table{Name: st.name, Line: st.line, Statement: src.text[st.start:st.end]}
	fail := func(line int, err error, detail string) error {
		return &SchemaError{Table: t.Name, Line: line, Statement: t.Statement, Err: err, Detail: detail}
	}

	mk, err := src.marker(st)
	if err != nil {
		return nil, err
	}
	t.Kind, t.Parent = mk.kind, mk.parent

	segs := src.segments(st.open+1, st.close)
	notes := make(map[int][]comment)
	closeLine := src.lineOf(st.close)
	for _, c := range src.comments {
		if c.off <= st.open || (c.off > st.close && c.line != closeLine) {
			continue
		}
		k := src.owner(st, c, segs)
		if k < 0 {
			if hasMarkerWord(c.text) {
				return nil, fail(c.line, ErrMalformedColumn, "marker comment is not on a column line")
			}
			continue
		}
		notes[k] = append(notes[k], c)
	}

	var constraints []segment
	for k, sg := range segs {
		text := strings.TrimSpace(src.code[sg.from:sg.to])
		line := src.lineOf(sg.from + leadingSpace(src.code[sg.from:sg.to]))
		if text == "" {
			if len(segs) == 1 {
				return nil, fail(st.line, ErrMalformedTable, "no columns")
			}
			return nil, fail(line, ErrMalformedColumn, "empty column definition")
		}
		if constraintRe.MatchString(text) {
			constraints = append(constraints, sg)
			continue
		}
		lo := sg.from + leadingSpace(src.code[sg.from:sg.to])
		hi := sg.from + len(strings.TrimRight(src.code[sg.from:sg.to], " \t\r\n"))
		col, detail, err := parseColumnDef(src.code[lo:hi], src.text[lo:hi])
		if err != nil {
			return nil, fail(line, err, detail)
		}
		col.Line = line
		for _, c := range notes[k] {
			if err := applyColumnComment(&col, c.text); err != nil {
				return nil, fail(c.line, ErrUnknownMarker, err.Error())
			}
		}
		if t.Column(col.Name) != nil {
			return nil, fail(line, ErrDuplicateColumn, col.Name)
		}
		t.Columns = append(t.Columns, col)
	}
	if len(t.Columns) == 0 {
		return nil, fail(st.line, ErrMalformedTable, "no columns")
	}
	for _, sg := range constraints {
		text := strings.TrimSpace(src.code[sg.from:sg.to])
		line := src.lineOf(sg.from + leadingSpace(src.code[sg.from:sg.to]))
		if detail, err := applyConstraint(t, text); err != nil {
			return nil, fail(line, err, detail)
		}
	}
	return t, nil
}

func leadingSpace(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t\r\n"))
}

// parseColumnDef matches on the masked code and takes the declared type
// from raw, which has the same offsets, so literals in ENUM('a','b') survive.
func parseColumnDef(code, raw string) (Column, string, error) {
	m := colDefRe.FindStringSubmatchIndex(code)
	if m == nil {
		return Column{}, raw, ErrMalformedColumn
	}
	col := Column{Name: code[m[2]:m[3]]}
	var rest, rawRest string
	if m[4] >= 0 {
		rest, rawRest = code[m[4]:m[5]], raw[m[4]:m[5]]
	}
	typEnd := len(rest)
	if loc := keywordRe.FindStringIndex(rest); loc != nil {
		typEnd = loc[0]
	}
	col.Type = strings.Join(strings.Fields(rawRest[:typEnd]), " ")
	if col.Type == "" {
		return Column{}, fmt.Sprintf("column %s has no type", col.Name), ErrMalformedColumn
	}
	col.PrimaryKey = pkRe.MatchString(rest)
	if refKeywordRe.MatchString(rest) {
		r := refRe.FindStringSubmatch(rest)
		if r == nil {
			return Column{}, fmt.Sprintf("column %s: want REFERENCES <table>(<column>)", col.Name), ErrMalformedReference
		}
		col.ForeignKey = &ForeignKey{RefTable: r[1], RefColumn: r[2]}
	}
	return col, "", nil
}

// applyColumnComment reads the markers in a trailing column comment.
func applyColumnComment(col *Column, text string) error {
	words := strings.Fields(text)
	if len(words) > 0 && strings.EqualFold(strings.Trim(words[0], ".,;:!"), "ignore") {
		col.Ignored = true
	}
	for _, w := range words {
		if !strings.HasPrefix(w, "@") {
			continue
		}
		name := strings.Trim(w[1:], ".,;:!()")
		if !strings.EqualFold(name, "aggregate") {
			return fmt.Errorf("@%s on column %s (want @aggregate)", name, col.Name)
		}
		col.Aggregate = true
	}
	return nil
}

func hasMarkerWord(text string) bool {
	for _, w := range strings.Fields(text) {
		if len(w) > 1 && w[0] == '@' {
			return true
		}
	}
	return false
}

// applyConstraint folds a table-level constraint into the parsed columns.
func applyConstraint(t *Table, s string) (string, error) {
	s = constraintNameRe.ReplaceAllString(s, "")
	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "PRIMARY"):
		m := tablePKRe.FindStringSubmatch(s)
		if m == nil {
			return "want PRIMARY KEY (<columns>)", ErrMalformedColumn
		}
		for _, part := range strings.Split(m[1], ",") {
			name := strings.Trim(strings.TrimSpace(part), "\"`")
			c := t.Column(name)
			if c == nil {
				return fmt.Sprintf("PRIMARY KEY names unknown column %q", name), ErrMalformedColumn
			}
			c.PrimaryKey = true
		}
	case strings.HasPrefix(upper, "FOREIGN"):
		m := tableFKRe.FindStringSubmatch(s)
		if m == nil {
			return "want FOREIGN KEY (<column>) REFERENCES <table>(<column>)", ErrMalformedReference
		}
		c := t.Column(m[1])
		if c == nil {
			return fmt.Sprintf("FOREIGN KEY names unknown column %q", m[1]), ErrMalformedColumn
		}
		c.ForeignKey = &ForeignKey{RefTable: m[2], RefColumn: m[3]}
	}
	return "", nil
}
