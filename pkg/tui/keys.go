package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeyMsg cancels the running task on ctrl+c or esc. The model keeps
// spinning until the task notices the cancellation and returns.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		if !m.interrupted {
			m.interrupted = true
			m.title = "cancelling..."
			if m.cancel != nil {
				m.cancel()
			}
		}
	}
	return m, nil
}
