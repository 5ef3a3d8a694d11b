package storage

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// VariablesDirName is the per-project directory holding variable files.
	VariablesDirName = "variables"

	documentExt = ".json"
)

// PathResolver maps project, template and variable names to paths relative
// to the storage root:
//
//	{project}/
//	{project}/{template}.json
//	{project}/variables/{variable}.json
//
// Every method validates the names it is given, so a name read from user
// input can never address a path outside the root.
type PathResolver struct{}

// ValidateName rejects names that are empty, hidden, or contain path separators.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q cannot start with a dot", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, filepath.Separator) {
		return fmt.Errorf("%w: %q cannot contain path separators", ErrInvalidName, name)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidName, name)
	}
	return nil
}

// Project returns the directory of a project.
func (PathResolver) Project(project string) (string, error) {
	if err := ValidateName(project); err != nil {
		return "", err
	}
	return project, nil
}

// Template returns the document path of a template.
func (r PathResolver) Template(project, template string) (string, error) {
	dir, err := r.Project(project)
	if err != nil {
		return "", err
	}
	if err := ValidateName(template); err != nil {
		return "", err
	}
	return filepath.Join(dir, template+documentExt), nil
}

// VariablesDir returns the directory holding a project's variables.
func (r PathResolver) VariablesDir(project string) (string, error) {
	dir, err := r.Project(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, VariablesDirName), nil
}

// Variable returns the document path of a variable.
func (r PathResolver) Variable(project, variable string) (string, error) {
	dir, err := r.VariablesDir(project)
	if err != nil {
		return "", err
	}
	if err := ValidateName(variable); err != nil {
		return "", err
	}
	return filepath.Join(dir, variable+documentExt), nil
}

// nameFromFile strips the extension from a document file name.
func nameFromFile(file string) string {
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

// isDocument reports whether a directory entry looks like a stored document.
func isDocument(file string) bool {
	return !strings.HasPrefix(file, ".") && filepath.Ext(file) == documentExt
}
