package main

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/require"

	"github.com/caiolrosa/req/pkg/config"
	"github.com/caiolrosa/req/pkg/prompt"
	"github.com/caiolrosa/req/pkg/storage"
	"github.com/caiolrosa/req/pkg/templating"
	"github.com/caiolrosa/req/pkg/tui"
)

// scriptedSelector answers prompts from queues.
type scriptedSelector struct {
	choices  []int
	texts    []string
	confirms []bool
	titles   []string
}

func (s *scriptedSelector) ChooseOne(title string, options []string, allowCreate bool) (int, error) {
	s.titles = append(s.titles, title)
	if len(s.choices) == 0 {
		return 0, prompt.ErrCancelled
	}
	next := s.choices[0]
	s.choices = s.choices[1:]
	return next, nil
}

func (s *scriptedSelector) Confirm(title string) (bool, error) {
	s.titles = append(s.titles, title)
	if len(s.confirms) == 0 {
		return false, prompt.ErrCancelled
	}
	next := s.confirms[0]
	s.confirms = s.confirms[1:]
	return next, nil
}

func (s *scriptedSelector) FreeText(title string) (string, error) {
	s.titles = append(s.titles, title)
	if len(s.texts) == 0 {
		return "", prompt.ErrCancelled
	}
	next := s.texts[0]
	s.texts = s.texts[1:]
	return next, nil
}

// scriptedEditor returns queued documents, or the initial text when the
// queue is empty.
type scriptedEditor struct {
	replies []string
}

func (e *scriptedEditor) Edit(initial, extension string) (string, error) {
	if len(e.replies) == 0 {
		return initial, nil
	}
	next := e.replies[0]
	e.replies = e.replies[1:]
	return next, nil
}

type testApp struct {
	*app
	output   *bytes.Buffer
	selector *scriptedSelector
	editor   *scriptedEditor
	copied   []string
}

// newTestApp builds a non-interactive app over an in-memory root holding the
// default project.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	ed := &scriptedEditor{}
	sel := &scriptedSelector{}
	out := &bytes.Buffer{}
	store := storage.New(memfs.New(), templating.NewEngine(), ed, nil)
	_, err := store.Projects.Create(config.DefaultProjectName)
	require.NoError(t, err)

	ta := &testApp{output: out, selector: sel, editor: ed}
	ta.app = &app{
		cfg:      &config.Config{DefaultProject: config.DefaultProjectName, Timeout: 5 * time.Second},
		logger:   slog.New(slog.DiscardHandler),
		store:    store,
		editor:   ed,
		selector: sel,
		out:      tui.NewPrinter(out),
		status:   &bytes.Buffer{},
		copy: func(s string) error {
			ta.copied = append(ta.copied, s)
			return nil
		},
	}
	return ta
}

// useApp makes loadApp return ta for the duration of the test.
func useApp(t *testing.T, ta *testApp) {
	t.Helper()
	current = ta.app
	t.Cleanup(func() { current = nil })
}

func (ta *testApp) mustTemplate(t *testing.T, project, name, doc string) {
	t.Helper()
	p, err := ta.store.Projects.Get(project)
	require.NoError(t, err)
	ta.editor.replies = append(ta.editor.replies, doc)
	_, err = ta.store.Templates.Create(p, name)
	require.NoError(t, err)
}
