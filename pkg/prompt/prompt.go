// Package prompt asks the user to pick, confirm or type values.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// CreateNew is returned by ChooseOne when the user picks the create entry.
const CreateNew = -1

// ErrCancelled is returned when the user interrupts a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// Selector is the interactive collaborator used by commands.
type Selector interface {
	// ChooseOne returns the index of the chosen option, or CreateNew.
	ChooseOne(title string, options []string, allowCreate bool) (int, error)
	Confirm(title string) (bool, error)
	FreeText(title string) (string, error)
}

// Huh implements Selector with charmbracelet/huh forms.
type Huh struct {
	accessible bool
}

// New returns a huh based selector. Accessible mode uses plain line prompts,
// which also work when stdin is not a terminal.
func New(accessible bool) *Huh {
	return &Huh{accessible: accessible}
}

func (h *Huh) run(field huh.Field) error {
	err := huh.NewForm(huh.NewGroup(field)).
		WithAccessible(h.accessible).
		WithShowHelp(false).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrCancelled
	}
	return err
}

// ChooseOne implements Selector.
func (h *Huh) ChooseOne(title string, options []string, allowCreate bool) (int, error) {
	opts, err := selectOptions(options, allowCreate)
	if err != nil {
		return 0, err
	}

	choice := opts[0].Value
	field := huh.NewSelect[int]().
		Title(title).
		Options(opts...).
		Value(&choice)
	if err := h.run(field); err != nil {
		return 0, err
	}
	return choice, nil
}

// Confirm implements Selector.
func (h *Huh) Confirm(title string) (bool, error) {
	var ok bool
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&ok)
	if err := h.run(field); err != nil {
		return false, err
	}
	return ok, nil
}

// FreeText implements Selector. Blank answers are rejected.
func (h *Huh) FreeText(title string) (string, error) {
	var text string
	field := huh.NewInput().
		Title(title).
		Value(&text).
		Validate(notBlank)
	if err := h.run(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a value is required")
	}
	return nil
}

func selectOptions(options []string, allowCreate bool) ([]huh.Option[int], error) {
	if len(options) == 0 && !allowCreate {
		return nil, fmt.Errorf("nothing to choose from")
	}

	opts := make([]huh.Option[int], 0, len(options)+1)
	for i, label := range options {
		opts = append(opts, huh.NewOption(label, i))
	}
	if allowCreate {
		opts = append(opts, huh.NewOption("+ Create new", CreateNew))
	}
	return opts, nil
}
