package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/templating"
)

// Variable is a named set of values for a project's input placeholders.
// Values are strings, numbers (json.Number) or booleans.
type Variable struct {
	Name     string
	Project  string
	Path     string
	Contents map[string]any
}

// Lookup implements templating.Resolver.
func (v *Variable) Lookup(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	value, ok := v.Contents[name]
	return value, ok
}

// Keys returns the variable's keys in sorted order.
func (v *Variable) Keys() []string {
	return slices.Sorted(maps.Keys(v.Contents))
}

// validateKeys checks every key is a placeholder identifier. Only keys
// written through Create, Set and Edit are checked; files edited by hand may
// carry other keys, which are loaded as is and never match a placeholder.
func validateKeys(contents map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(contents)) {
		if !templating.ValidIdentifier(key) {
			return fmt.Errorf("%w: key %q is not a valid placeholder name", ErrInvalidName, key)
		}
	}
	return nil
}

// validateValues checks every value is a scalar.
func validateValues(contents map[string]any) error {
	for _, key := range slices.Sorted(maps.Keys(contents)) {
		if err := templating.ValidateValue(contents[key]); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}
	return nil
}

// parseContents decodes a variable document and validates its values.
func parseContents(data []byte) (map[string]any, error) {
	var contents map[string]any
	if err := decodeJSON(data, &contents); err != nil {
		return nil, fmt.Errorf("%w: variable must be a JSON object: %v", ErrMalformedDocument, err)
	}
	if contents == nil {
		contents = map[string]any{}
	}
	if err := validateValues(contents); err != nil {
		return nil, err
	}
	return contents, nil
}

// VariableStore reads and writes variable documents.
type VariableStore struct {
	fs     billy.Filesystem
	paths  PathResolver
	editor editor.Editor
	logger *slog.Logger
}

// NewVariableStore creates a store over fs. ed is used by Edit.
func NewVariableStore(fs billy.Filesystem, ed editor.Editor, logger *slog.Logger) *VariableStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &VariableStore{fs: fs, editor: ed, logger: logger}
}

// Create writes a new variable. A nil contents map creates an empty variable.
// Invalid contents fail before anything is written.
func (s *VariableStore) Create(project, name string, contents map[string]any) (*Variable, error) {
	path, err := s.paths.Variable(project, name)
	if err != nil {
		return nil, err
	}
	if contents == nil {
		contents = map[string]any{}
	}
	if err := validateKeys(contents); err != nil {
		return nil, err
	}
	if err := validateValues(contents); err != nil {
		return nil, err
	}

	found, err := exists(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check variable %q: %w", name, err)
	}
	if found {
		return nil, fmt.Errorf("variable %q in project %q: %w", name, project, ErrAlreadyExists)
	}

	v := &Variable{Name: name, Project: project, Path: path, Contents: contents}
	if err := s.write(v); err != nil {
		return nil, err
	}
	s.logger.Debug("created variable", "project", project, "variable", name)
	return v, nil
}

// Load reads a variable from disk.
func (s *VariableStore) Load(project, name string) (*Variable, error) {
	path, err := s.paths.Variable(project, name)
	if err != nil {
		return nil, err
	}

	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("variable %q in project %q: %w", name, project, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read variable %q: %w", name, err)
	}

	contents, err := parseContents(data)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", name, err)
	}
	return &Variable{Name: name, Project: project, Path: path, Contents: contents}, nil
}

// List loads every variable of a project, ordered by name. A project
// without a variables directory has no variables.
func (s *VariableStore) List(project string) ([]*Variable, error) {
	dir, err := s.paths.VariablesDir(project)
	if err != nil {
		return nil, err
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*Variable{}, nil
		}
		return nil, fmt.Errorf("failed to read variables of %q: %w", project, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			continue
		}
		names = append(names, nameFromFile(entry.Name()))
	}
	slices.Sort(names)

	vars := make([]*Variable, 0, len(names))
	for _, name := range names {
		v, err := s.Load(project, name)
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
	}
	return vars, nil
}

// Save validates the values and writes the variable's contents.
func (s *VariableStore) Save(v *Variable) error {
	if err := validateValues(v.Contents); err != nil {
		return err
	}
	return s.write(v)
}

// Set stores a single value. On failure neither the file nor v changes.
func (s *VariableStore) Set(v *Variable, key string, value any) error {
	next := maps.Clone(v.Contents)
	if next == nil {
		next = map[string]any{}
	}
	next[key] = value

	if err := validateKeys(map[string]any{key: value}); err != nil {
		return err
	}
	if err := validateValues(next); err != nil {
		return err
	}
	if err := s.write(&Variable{Name: v.Name, Project: v.Project, Path: v.Path, Contents: next}); err != nil {
		return err
	}
	v.Contents = next
	s.logger.Debug("set variable value", "project", v.Project, "variable", v.Name, "key", key)
	return nil
}

// Unset removes a key. Removing a missing key is a no-op.
func (s *VariableStore) Unset(v *Variable, key string) error {
	if _, ok := v.Contents[key]; !ok {
		return nil
	}
	next := maps.Clone(v.Contents)
	delete(next, key)
	if err := s.write(&Variable{Name: v.Name, Project: v.Project, Path: v.Path, Contents: next}); err != nil {
		return err
	}
	v.Contents = next
	return nil
}

// AddMissing adds keys absent from v with an empty string value and saves
// when anything was added. Existing values are never touched.
func (s *VariableStore) AddMissing(v *Variable, keys []string) (bool, error) {
	next := maps.Clone(v.Contents)
	if next == nil {
		next = map[string]any{}
	}
	added := 0
	for _, key := range keys {
		if _, ok := next[key]; ok {
			continue
		}
		next[key] = ""
		added++
	}
	if added == 0 {
		return false, nil
	}

	if err := s.Save(&Variable{Name: v.Name, Project: v.Project, Path: v.Path, Contents: next}); err != nil {
		return false, err
	}
	v.Contents = next
	s.logger.Debug("registered placeholders", "project", v.Project, "variable", v.Name, "added", added)
	return true, nil
}

// Edit opens the variable in the editor and saves the result. An aborted
// edit or invalid document leaves both the file and v unchanged.
func (s *VariableStore) Edit(v *Variable) error {
	initial, err := encodeJSON(v.Contents, true)
	if err != nil {
		return fmt.Errorf("failed to encode variable %q: %w", v.Name, err)
	}

	edited, err := s.editor.Edit(string(initial), documentExt)
	if err != nil {
		return err
	}

	contents, err := parseContents([]byte(edited))
	if err == nil {
		err = validateKeys(contents)
	}
	if err != nil {
		return fmt.Errorf("variable %q: %w", v.Name, err)
	}
	if err := s.write(&Variable{Name: v.Name, Project: v.Project, Path: v.Path, Contents: contents}); err != nil {
		return err
	}
	v.Contents = contents
	return nil
}

// Delete removes the variable's file and clears v.
func (s *VariableStore) Delete(v *Variable) error {
	if err := s.fs.Remove(v.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("variable %q in project %q: %w", v.Name, v.Project, ErrNotFound)
		}
		return fmt.Errorf("failed to delete variable %q: %w", v.Name, err)
	}
	s.logger.Debug("deleted variable", "project", v.Project, "variable", v.Name)
	*v = Variable{}
	return nil
}

func (s *VariableStore) write(v *Variable) error {
	data, err := encodeJSON(v.Contents, false)
	if err != nil {
		return fmt.Errorf("failed to encode variable %q: %w", v.Name, err)
	}
	if err := writeFileAtomic(s.fs, v.Path, data); err != nil {
		return fmt.Errorf("failed to save variable %q: %w", v.Name, err)
	}
	return nil
}
