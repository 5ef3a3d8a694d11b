package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/caiolrosa/req/pkg/config"
	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/prompt"
	"github.com/caiolrosa/req/pkg/storage"
	"github.com/caiolrosa/req/pkg/templating"
	"github.com/caiolrosa/req/pkg/tui"
)

// app holds everything a command needs. It is built once per process by
// loadApp; tests build it directly.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       *storage.Store
	editor      editor.Editor
	selector    prompt.Selector
	interactive bool
	out         *tui.Printer
	status      io.Writer // spinner output
	copy        func(string) error
}

var current *app

func loadApp(cmd *cobra.Command) (*app, error) {
	if current != nil {
		return current, nil
	}

	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	ed := editor.NewExternal(cfg.Editor)
	store := storage.New(cfg.Filesystem(), templating.NewEngine(), ed, logger)
	if err := config.Init(cfg, store.Projects); err != nil {
		return nil, fmt.Errorf("failed to initialize %s: %w", cfg.TemplatesDir, err)
	}
	logger.Debug("configuration loaded", "file", cfg.ConfigFile, "templates_dir", cfg.TemplatesDir)

	interactive := tui.IsTerminal(os.Stdin)
	current = &app{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		editor:      ed,
		selector:    prompt.New(!interactive),
		interactive: interactive,
		out:         tui.NewPrinter(cmd.OutOrStdout()),
		status:      cmd.ErrOrStderr(),
		copy:        clipboard.WriteAll,
	}
	return current, nil
}

// selectProject returns the named project. Without a name it prompts, or
// falls back to the configured default project when stdin is not a terminal.
func (a *app) selectProject(name string) (*storage.Project, error) {
	if name != "" {
		return a.store.Projects.Get(name)
	}
	if !a.interactive {
		return a.store.Projects.Get(a.cfg.DefaultProject)
	}

	names, err := a.store.Projects.List()
	if err != nil {
		return nil, err
	}
	i, err := a.selector.ChooseOne("Select a project", names, true)
	if err != nil {
		return nil, err
	}
	if i == prompt.CreateNew {
		name, err := a.selector.FreeText("New project name")
		if err != nil {
			return nil, err
		}
		p, err := a.store.Projects.Create(name)
		if err != nil {
			return nil, err
		}
		a.out.Success("Project %s created", p.Name)
		return p, nil
	}
	return a.store.Projects.Get(names[i])
}

// selectTemplate loads the named template of p, prompting when name is empty.
func (a *app) selectTemplate(p *storage.Project, name string) (*storage.Template, error) {
	if name != "" {
		return a.store.Templates.Load(p, name)
	}

	names, err := a.store.Templates.List(p)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("project %q has no templates: %w", p.Name, storage.ErrNotFound)
	}
	if !a.interactive {
		return nil, errors.New("a template name is required when stdin is not a terminal")
	}

	i, err := a.selector.ChooseOne("Select a template", names, false)
	if err != nil {
		return nil, err
	}
	return a.store.Templates.Load(p, names[i])
}

// selectVariable selects the variable of p used for substitution: the named
// one, the only one, or the one picked at the prompt. A project without
// variables is left without a selection.
func (a *app) selectVariable(p *storage.Project, name string, allowCreate bool) error {
	if name != "" {
		return a.store.Projects.SelectVariable(p, name)
	}

	vars, err := a.store.Projects.Variables(p)
	if err != nil {
		return err
	}
	switch {
	case len(vars) == 0 && !allowCreate:
		return nil
	case len(vars) == 1:
		return a.store.Projects.SelectVariableIndex(p, 0)
	case !a.interactive:
		if len(vars) == 0 {
			_, err := a.store.Projects.CreateVariable(p, storage.DefaultVariableName)
			return err
		}
		return fmt.Errorf("project %q has %d variables, pick one with --variable: %w", p.Name, len(vars), storage.ErrNoSelection)
	}

	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name
	}
	i, err := a.selector.ChooseOne("Select a variable", names, allowCreate)
	if err != nil {
		return err
	}
	if i == prompt.CreateNew {
		name, err := a.selector.FreeText("New variable name")
		if err != nil {
			return err
		}
		_, err = a.store.Projects.CreateVariable(p, name)
		return err
	}
	return a.store.Projects.SelectVariableIndex(p, i)
}

// confirm asks before destructive operations. Without a terminal the
// operation needs --yes.
func (a *app) confirm(question string, yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !a.interactive {
		return false, errors.New("refusing to continue without confirmation, pass --yes")
	}
	return a.selector.Confirm(question)
}

func (a *app) copyToClipboard(text string) error {
	if err := a.copy(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	a.out.Notice("copied to clipboard")
	return nil
}
