package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/satyammistari/sqlcollections/internal/schema"
)

func (m Model) View() string {
	if m.Width == 0 {
		return "Loading..."
	}
	return strings.Join([]string{
		m.renderHeader(),
		m.renderContent(),
		m.renderStatusBar(),
		m.renderKeyBar(),
	}, "\n")
}

func (m Model) renderHeader() string {
	tabs := ""
	for i := Tab(0); i < tabCount; i++ {
		if i == m.ActiveTab {
			tabs += activeTabStyle.Render(i.String())
		} else {
			tabs += tabStyle.Render(i.String())
		}
	}
	path := labelStyle.Render("Schema:") + m.PathField.View()
	if m.Loading {
		path += "  " + warningStyle.Render(m.Spinner.View()+" Loading...")
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(" sqlcollections"),
		panelStyle.Width(m.Width-4).Render(tabs+"\n"+path),
	)
}

func (m Model) renderContent() string {
	switch m.ActiveTab {
	case TabCollections:
		return m.renderCollectionsTab()
	case TabClassify:
		return m.renderClassifyTab()
	case TabHelp:
		return m.renderHelpTab()
	}
	return ""
}

func (m Model) renderCollectionsTab() string {
	cw := m.Width - 4
	lw := cw / 4
	rw := cw - lw - 3
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderCollectionList(lw), "  ", m.renderCollectionSQL(rw),
	)
}

func (m Model) renderCollectionList(width int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Collections") + "\n\n")
	cols := m.Collections()
	if len(cols) == 0 {
		sb.WriteString(dimStyle.Render("None yet."))
	}
	for i, c := range cols {
		if i == m.Selected {
			sb.WriteString(highlightStyle.Render("› "+truncate(c, width-6)) + "\n")
		} else {
			sb.WriteString(valueStyle.Render("  "+truncate(c, width-6)) + "\n")
		}
	}
	return activePanelStyle.Width(width).Render(sb.String())
}

func (m Model) renderCollectionSQL(width int) string {
	var sb strings.Builder
	cols := m.Collections()
	if len(cols) == 0 {
		sb.WriteString(dimStyle.Render("Press 2 to classify tables."))
		return panelStyle.Width(width).Render(sb.String())
	}
	name := cols[m.Selected]

	var lines []string
	lines = append(lines, titleStyle.Render("Insert order"), "")
	for _, g := range m.Result.Inserts {
		if g.Collection != name {
			continue
		}
		for i, stmt := range g.Statements {
			table := g.Tables[i].Name
			lines = append(lines,
				fmt.Sprintf("%2d. %s %s", i+1, valueStyle.Render(table), kindBadge(m.Result.Graph.Kind(table).String())),
				dimStyle.Render("    "+stmt))
		}
	}
	lines = append(lines, "", titleStyle.Render("Read query"), "")
	for _, l := range splitSelect(m.Result.Document.Reads[name]) {
		lines = append(lines, valueStyle.Render("  "+l))
	}

	start := clamp(m.Scroll, len(lines))
	visible := lines[start:]
	if h := m.Height - 14; h > 0 && len(visible) > h {
		visible = visible[:h]
	}
	sb.WriteString(strings.Join(visible, "\n"))
	return panelStyle.Width(width).Render(sb.String())
}

var selectBreaks = []string{" FROM ", " LEFT JOIN ", " GROUP BY ", " ORDER BY "}

// splitSelect puts each clause of a generated query on its own line.
func splitSelect(q string) []string {
	for _, kw := range selectBreaks {
		q = strings.ReplaceAll(q, kw, "\n"+strings.TrimPrefix(kw, " "))
	}
	return strings.Split(q, "\n")
}

func (m Model) renderClassifyTab() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Unclassified tables") + "\n\n")
	if len(m.Pending) == 0 {
		sb.WriteString(dimStyle.Render("Every table has a kind."))
		return panelStyle.Width(m.Width - 6).Render(sb.String())
	}
	for i, p := range m.Pending {
		cursor := "  "
		if i == m.Cursor {
			cursor = highlightStyle.Render("› ")
		}
		kind := dimStyle.Render("·")
		if p.Kind != schema.Unclassified {
			kind = kindBadge(p.Kind.String())
		}
		sb.WriteString(fmt.Sprintf("%s%-24s %s  %s\n",
			cursor, truncate(p.Table, 24),
			dimStyle.Render(fmt.Sprintf("%d cols, %d fks", p.Columns, p.FKs)),
			kind))
	}
	sb.WriteString("\n" + dimStyle.Render(fmt.Sprintf("%d of %d assigned → w writes markers to %s",
		m.Assigned(), len(m.Pending), m.SchemaPath())))
	return activePanelStyle.Width(m.Width - 6).Render(sb.String())
}

func (m Model) renderHelpTab() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Keyboard Shortcuts") + "\n\n")

	sections := []struct {
		title string
		keys  [][2]string
	}{
		{"Navigation", [][2]string{
			{"Tab / Shift+Tab", "Switch tabs"},
			{"1, 2, 3", "Jump to tab"},
			{"e", "Edit schema path (Enter loads, Esc cancels)"},
			{"r", "Reload schema"},
			{"q / Ctrl+C", "Quit"},
		}},
		{"Collections", [][2]string{
			{"↑↓ / k j", "Select collection"},
			{"Shift+j / k", "Scroll SQL"},
		}},
		{"Classify", [][2]string{
			{"↑↓", "Move"},
			{"c / a / j", "Mark collection, attribute, junction"},
			{"s", "Skip (leave unmarked)"},
			{"w", "Write markers and regenerate"},
		}},
	}
	for _, sec := range sections {
		sb.WriteString(lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Render("  "+sec.title) + "\n")
		for _, pair := range sec.keys {
			sb.WriteString("  " + keyStyle.Width(22).Render(pair[0]) + keyDescStyle.Render(pair[1]) + "\n")
		}
		sb.WriteString("\n")
	}
	return panelStyle.Width(m.Width - 6).Render(sb.String())
}

func (m Model) renderStatusBar() string {
	var style lipgloss.Style
	switch m.StatusKind {
	case "success":
		style = successStyle
	case "error":
		style = errorStyle
	case "warning":
		style = warningStyle
	default:
		style = dimStyle
	}
	return lipgloss.NewStyle().
		Width(m.Width-4).
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(colorBorder).
		Render(style.Render("  " + m.StatusMsg))
}

func (m Model) renderKeyBar() string {
	keys := []string{
		RenderKeyBinding("Tab", "switch"),
		RenderKeyBinding("e", "path"),
		RenderKeyBinding("r", "reload"),
	}
	if m.ActiveTab == TabClassify {
		keys = append(keys, RenderKeyBinding("c/a/j/s", "mark"), RenderKeyBinding("w", "write"))
	}
	keys = append(keys, RenderKeyBinding("q", "quit"))
	return dimStyle.Width(m.Width-4).Render("  " + strings.Join(keys, dimStyle.Render("  │  ")))
}

func truncate(s string, n int) string {
	if n < 2 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
