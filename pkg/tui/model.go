package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
)

// Model is the Bubble Tea model shown while a task runs in the background.
// It owns nothing but the spinner: the task reports completion through
// taskDoneMsg and is cancelled through cancel.
type Model struct {
	spinner spinner.Model
	title   string
	cancel  context.CancelFunc

	done        bool
	interrupted bool
}

// taskDoneMsg signals the background task has returned.
type taskDoneMsg struct{}
