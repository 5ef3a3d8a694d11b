package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/caiolrosa/req/pkg/templating"
)

// DefaultVariableName is created when placeholders are registered on a
// project that has no variables yet.
const DefaultVariableName = "default"

const noSelection = -1

// Project is a directory of templates plus its variables. Variables are
// loaded lazily on first use and cached until Refresh.
type Project struct {
	Name string
	Path string

	variables []*Variable
	loaded    bool
	selected  int
}

func newProject(name, path string) *Project {
	return &Project{Name: name, Path: path, selected: noSelection}
}

// ProjectStore manages project directories and their variable selection.
type ProjectStore struct {
	fs        billy.Filesystem
	paths     PathResolver
	variables *VariableStore
	logger    *slog.Logger
}

// NewProjectStore creates a store over fs.
func NewProjectStore(fs billy.Filesystem, variables *VariableStore, logger *slog.Logger) *ProjectStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ProjectStore{fs: fs, variables: variables, logger: logger}
}

// Create makes a new project directory with an empty variables directory.
func (s *ProjectStore) Create(name string) (*Project, error) {
	path, err := s.paths.Project(name)
	if err != nil {
		return nil, err
	}

	found, err := exists(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check project %q: %w", name, err)
	}
	if found {
		return nil, fmt.Errorf("project %q: %w", name, ErrAlreadyExists)
	}

	varsDir, _ := s.paths.VariablesDir(name)
	if err := s.fs.MkdirAll(varsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project %q: %w", name, err)
	}
	s.logger.Debug("created project", "project", name)
	return newProject(name, path), nil
}

// Get returns a handle to an existing project.
func (s *ProjectStore) Get(name string) (*Project, error) {
	path, err := s.paths.Project(name)
	if err != nil {
		return nil, err
	}

	dir, err := isDir(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check project %q: %w", name, err)
	}
	if !dir {
		return nil, fmt.Errorf("project %q: %w", name, ErrNotFound)
	}
	return newProject(name, path), nil
}

// List returns the names of all projects in sorted order.
func (s *ProjectStore) List() ([]string, error) {
	entries, err := s.fs.ReadDir("")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read projects: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Rename moves the project directory. Variables cached in p follow the
// rename; templates and variables loaded elsewhere keep their old paths.
func (s *ProjectStore) Rename(p *Project, newName string) error {
	path, err := s.paths.Project(newName)
	if err != nil {
		return err
	}

	found, err := exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("failed to check project %q: %w", newName, err)
	}
	if found {
		return fmt.Errorf("project %q: %w", newName, ErrAlreadyExists)
	}

	if err := s.fs.Rename(p.Path, path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("project %q: %w", p.Name, ErrNotFound)
		}
		return fmt.Errorf("failed to rename project %q: %w", p.Name, err)
	}
	s.logger.Debug("renamed project", "from", p.Name, "to", newName)

	p.Name = newName
	p.Path = path
	for _, v := range p.variables {
		v.Project = newName
		v.Path, _ = s.paths.Variable(newName, v.Name)
	}
	return nil
}

// Delete removes the project and everything in it, then clears p.
func (s *ProjectStore) Delete(p *Project) error {
	dir, err := isDir(s.fs, p.Path)
	if err != nil {
		return fmt.Errorf("failed to check project %q: %w", p.Name, err)
	}
	if !dir {
		return fmt.Errorf("project %q: %w", p.Name, ErrNotFound)
	}

	if err := util.RemoveAll(s.fs, p.Path); err != nil {
		return fmt.Errorf("failed to delete project %q: %w", p.Name, err)
	}
	s.logger.Debug("deleted project", "project", p.Name)
	*p = Project{selected: noSelection}
	return nil
}

// Variables returns the project's variables, loading them on first call.
func (s *ProjectStore) Variables(p *Project) ([]*Variable, error) {
	if p.loaded {
		return p.variables, nil
	}

	vars, err := s.variables.List(p.Name)
	if err != nil {
		return nil, err
	}
	p.variables = vars
	p.loaded = true
	return p.variables, nil
}

// Refresh reloads the variables from disk, keeping the selection by name
// when the selected variable still exists.
func (s *ProjectStore) Refresh(p *Project) error {
	var selected string
	if p.selected != noSelection && p.selected < len(p.variables) {
		selected = p.variables[p.selected].Name
	}

	p.loaded = false
	p.variables = nil
	p.selected = noSelection
	if _, err := s.Variables(p); err != nil {
		return err
	}

	if selected != "" {
		if i := s.indexOf(p, selected); i != noSelection {
			p.selected = i
		}
	}
	return nil
}

// CreateVariable adds an empty variable to the project and selects it.
func (s *ProjectStore) CreateVariable(p *Project, name string) (*Variable, error) {
	if _, err := s.Variables(p); err != nil {
		return nil, err
	}

	v, err := s.variables.Create(p.Name, name, nil)
	if err != nil {
		return nil, err
	}
	p.variables = append(p.variables, v)
	p.selected = len(p.variables) - 1
	return v, nil
}

// SelectVariable selects a variable by name.
func (s *ProjectStore) SelectVariable(p *Project, name string) error {
	if _, err := s.Variables(p); err != nil {
		return err
	}
	i := s.indexOf(p, name)
	if i == noSelection {
		return fmt.Errorf("variable %q in project %q: %w", name, p.Name, ErrNotFound)
	}
	p.selected = i
	return nil
}

// SelectVariableIndex selects a variable by its position in Variables.
func (s *ProjectStore) SelectVariableIndex(p *Project, index int) error {
	vars, err := s.Variables(p)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(vars) {
		return fmt.Errorf("variable index %d of %d: %w", index, len(vars), ErrOutOfBounds)
	}
	p.selected = index
	return nil
}

// CurrentVariable returns the selected variable.
func (s *ProjectStore) CurrentVariable(p *Project) (*Variable, error) {
	if _, err := s.Variables(p); err != nil {
		return nil, err
	}
	if p.selected == noSelection || p.selected >= len(p.variables) {
		return nil, fmt.Errorf("project %q: %w", p.Name, ErrNoSelection)
	}
	return p.variables[p.selected], nil
}

// RemoveVariable deletes a variable and drops it from the project. The
// selection is cleared when it pointed at the removed variable.
func (s *ProjectStore) RemoveVariable(p *Project, name string) error {
	if _, err := s.Variables(p); err != nil {
		return err
	}
	i := s.indexOf(p, name)
	if i == noSelection {
		return fmt.Errorf("variable %q in project %q: %w", name, p.Name, ErrNotFound)
	}

	if err := s.variables.Delete(p.variables[i]); err != nil {
		return err
	}
	p.variables = slices.Delete(p.variables, i, i+1)
	switch {
	case p.selected == i:
		p.selected = noSelection
	case p.selected > i:
		p.selected--
	}
	return nil
}

// UpdateVariablesFromTemplate registers every input placeholder found in a
// template document on every variable of the project.
func (s *ProjectStore) UpdateVariablesFromTemplate(p *Project, document string) error {
	return s.register(p, document)
}

// UpdateVariablesFromResponse registers every input placeholder found in a
// response body on every variable of the project.
func (s *ProjectStore) UpdateVariablesFromResponse(p *Project, body string) error {
	return s.register(p, body)
}

// register adds each placeholder name missing from a variable with an empty
// value. A project with no variables gets a selected default variable first.
// Running it twice with the same text changes nothing the second time.
func (s *ProjectStore) register(p *Project, text string) error {
	names := templating.Unique(templating.Extract(text, templating.Input))
	if len(names) == 0 {
		return nil
	}

	vars, err := s.Variables(p)
	if err != nil {
		return err
	}
	if len(vars) == 0 {
		if _, err := s.CreateVariable(p, DefaultVariableName); err != nil {
			return fmt.Errorf("failed to create default variable: %w", err)
		}
		vars = p.variables
	}

	for _, v := range vars {
		if _, err := s.variables.AddMissing(v, names); err != nil {
			return err
		}
	}
	return nil
}

func (s *ProjectStore) indexOf(p *Project, name string) int {
	for i, v := range p.variables {
		if v.Name == name {
			return i
		}
	}
	return noSelection
}
