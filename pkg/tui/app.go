// Package tui renders req's terminal output: styled text, highlighted JSON
// documents and a spinner shown while a request is in flight.
//
// File organization:
//   - app.go: RunWithSpinner entry point
//   - model.go, init.go, update.go, keys.go: spinner model
//   - view.go: spinner view and the Printer used by commands
//   - styles.go: palette and styles
//   - highlight.go: JSON pretty printing and highlighting
//   - term.go: terminal detection
package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithSpinner runs task while showing a spinner on w. Pressing ctrl+c
// cancels the context given to task. When w is not a terminal the task runs
// without any output.
func RunWithSpinner(ctx context.Context, w io.Writer, title string, task func(context.Context) error) error {
	if !IsTerminal(w) {
		return task(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(newModel(title, cancel), tea.WithOutput(w))

	done := make(chan error, 1)
	go func() {
		err := task(ctx)
		done <- err
		prog.Send(taskDoneMsg{})
	}()

	if _, err := prog.Run(); err != nil {
		// The spinner is cosmetic; the task result is what matters.
		cancel()
	}
	return <-done
}
