// Package editor hands documents to the user's text editor.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrEditAborted is returned when the user leaves the editor without saving.
var ErrEditAborted = errors.New("edit aborted")

// Editor presents text for interactive modification.
// Implementations return ErrEditAborted when the user cancels.
type Editor interface {
	Edit(initial, extension string) (string, error)
}

// Func adapts a plain function to the Editor interface.
type Func func(initial, extension string) (string, error)

// Edit implements Editor.
func (f Func) Edit(initial, extension string) (string, error) {
	return f(initial, extension)
}

// External runs a terminal editor on a temporary file.
type External struct {
	command string
}

// NewExternal creates an editor running command. An empty command falls back
// to $VISUAL, then $EDITOR, then vi.
func NewExternal(command string) *External {
	if command == "" {
		command = os.Getenv("VISUAL")
	}
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	if command == "" {
		command = "vi"
	}
	return &External{command: command}
}

// Command returns the editor command line.
func (e *External) Command() string {
	return e.command
}

// Edit writes initial to a temporary file, opens it in the editor and returns
// the saved contents. Quitting without saving, or a non-zero exit, aborts.
func (e *External) Edit(initial, extension string) (string, error) {
	if extension != "" && !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}

	f, err := os.CreateTemp("", "req-*"+extension)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	before, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat temp file: %w", err)
	}

	args := strings.Fields(e.command)
	if len(args) == 0 {
		return "", fmt.Errorf("no editor configured")
	}
	cmd := exec.Command(args[0], append(args[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s exited with %d", ErrEditAborted, args[0], exitErr.ExitCode())
		}
		return "", fmt.Errorf("failed to run editor %s: %w", args[0], err)
	}

	after, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat temp file: %w", err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read temp file: %w", err)
	}

	if after.ModTime().Equal(before.ModTime()) && bytes.Equal(edited, []byte(initial)) {
		return "", ErrEditAborted
	}

	return string(edited), nil
}
