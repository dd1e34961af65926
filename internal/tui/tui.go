// Package tui is a terminal browser for generated collections and a
// classifier for unmarked tables.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

func Run(cfg Config) error {
	m := NewModel(cfg)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
