package tui

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/satyammistari/sqlcollections/internal/pipeline"
	"github.com/satyammistari/sqlcollections/internal/schema"
)

type loadedMsg struct {
	path    string
	content string
	res     *pipeline.Result
	written int
}

type errMsg struct{ err error }

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, loadSchema(m.SchemaPath(), m.Config.Options))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.PathField.Focused() {
			return m.handlePathKey(msg)
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "tab":
			m.ActiveTab = (m.ActiveTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.ActiveTab = (m.ActiveTab + tabCount - 1) % tabCount
			return m, nil
		case "1":
			m.ActiveTab = TabCollections
			return m, nil
		case "2":
			m.ActiveTab = TabClassify
			return m, nil
		case "3", "?":
			m.ActiveTab = TabHelp
			return m, nil
		case "e":
			m.PathField.Focus()
			return m, textinput.Blink
		case "r":
			return m.reload()
		}
		switch m.ActiveTab {
		case TabCollections:
			return m.handleCollectionsKey(msg)
		case TabClassify:
			return m.handleClassifyKey(msg)
		}
		return m, nil

	case spinner.TickMsg:
		if m.Loading {
			var cmd tea.Cmd
			m.Spinner, cmd = m.Spinner.Update(msg)
			return m, cmd
		}

	case loadedMsg:
		m.Loading = false
		m.Err = nil
		m.Content = msg.content
		m.Result = msg.res
		m.Pending = pendingTables(msg.res)
		m.Selected = clamp(m.Selected, len(m.Collections()))
		m.Cursor = clamp(m.Cursor, len(m.Pending))
		m.Scroll = 0
		if msg.written > 0 {
			m.StatusMsg = fmt.Sprintf("✓ Wrote %d markers to %s", msg.written, msg.path)
		} else {
			m.StatusMsg = fmt.Sprintf("Loaded %s → %d tables, %d collections, %d unclassified",
				msg.path, len(msg.res.Schema.Tables), len(m.Collections()), len(m.Pending))
		}
		m.StatusKind = "success"
		if len(m.Collections()) == 0 {
			m.StatusMsg += " (mark a table @collection in Classify)"
			m.StatusKind = "warning"
		}

	case errMsg:
		m.Loading = false
		m.Err = msg.err
		m.StatusMsg = fmt.Sprintf("✗ %v", msg.err)
		m.StatusKind = "error"
	}
	return m, nil
}

func (m Model) reload() (Model, tea.Cmd) {
	m.Loading = true
	m.StatusMsg = "Loading " + m.SchemaPath() + "..."
	m.StatusKind = "info"
	return m, tea.Batch(m.Spinner.Tick, loadSchema(m.SchemaPath(), m.Config.Options))
}

func (m Model) handlePathKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.PathField.Blur()
		return m, nil
	case "enter":
		m.PathField.Blur()
		return m.reload()
	}
	var cmd tea.Cmd
	m.PathField, cmd = m.PathField.Update(msg)
	return m, cmd
}

func (m Model) handleCollectionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.Collections())
	switch msg.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
			m.Scroll = 0
		}
	case "down", "j":
		if m.Selected < n-1 {
			m.Selected++
			m.Scroll = 0
		}
	case "J": // Shift+j scrolls the SQL panel
		m.Scroll++
	case "K":
		if m.Scroll > 0 {
			m.Scroll--
		}
	}
	return m, nil
}

func (m Model) handleClassifyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.Pending) == 0 {
		return m, nil
	}
	switch msg.String() {
	case "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down":
		if m.Cursor < len(m.Pending)-1 {
			m.Cursor++
		}
	case "c":
		m = m.assign(schema.Collection)
	case "a":
		m = m.assign(schema.Attribute)
	case "j":
		m = m.assign(schema.Junction)
	case "s":
		m = m.assign(schema.Unclassified)
	case "w":
		if m.Assigned() == 0 {
			m.StatusMsg = "Nothing to write → assign a kind with c, a or j"
			m.StatusKind = "warning"
			return m, nil
		}
		m.Loading = true
		m.StatusMsg = "Writing markers..."
		m.StatusKind = "info"
		pending := append([]Pending(nil), m.Pending...)
		return m, tea.Batch(m.Spinner.Tick, writeMarkers(m.SchemaPath(), m.Content, pending, m.Config.Options))
	}
	return m, nil
}

// assign sets the kind of the table under the cursor and moves to the next.
func (m Model) assign(kind schema.TableKind) Model {
	pending := append([]Pending(nil), m.Pending...)
	pending[m.Cursor].Kind = kind
	m.Pending = pending
	if m.Cursor < len(m.Pending)-1 {
		m.Cursor++
	}
	return m
}

func loadSchema(path string, opts pipeline.Options) tea.Cmd {
	return func() tea.Msg {
		content, err := os.ReadFile(path)
		if err != nil {
			return errMsg{err: fmt.Errorf("read schema file: %w", err)}
		}
		res, err := pipeline.Run(context.Background(), string(content), opts)
		if err != nil {
			return errMsg{err: err}
		}
		return loadedMsg{path: path, content: string(content), res: res}
	}
}

// applyMarkers annotates content with every assigned kind. The result must
// still generate cleanly.
func applyMarkers(content string, pending []Pending, opts pipeline.Options) (string, *pipeline.Result, int, error) {
	n := 0
	for _, p := range pending {
		if p.Kind == schema.Unclassified {
			continue
		}
		var err error
		content, err = schema.Annotate(content, p.Table, p.Kind)
		if err != nil {
			return "", nil, 0, err
		}
		n++
	}
	res, err := pipeline.Run(context.Background(), content, opts)
	if err != nil {
		return "", nil, 0, fmt.Errorf("markers not written: %w", err)
	}
	return content, res, n, nil
}

func writeMarkers(path, content string, pending []Pending, opts pipeline.Options) tea.Cmd {
	return func() tea.Msg {
		out, res, n, err := applyMarkers(content, pending, opts)
		if err != nil {
			return errMsg{err: err}
		}
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return errMsg{err: fmt.Errorf("write schema file: %w", err)}
		}
		return loadedMsg{path: path, content: out, res: res, written: n}
	}
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
