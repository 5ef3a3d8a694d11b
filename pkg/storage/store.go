// Package storage persists projects, templates and variables as JSON
// documents under a single root directory:
//
//	root/{project}/{template}.json
//	root/{project}/variables/{variable}.json
//
// All access goes through a billy.Filesystem rooted at that directory, so
// tests can run the same code against an in-memory filesystem.
package storage

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/templating"
)

// Store bundles the three stores sharing one root.
type Store struct {
	Projects  *ProjectStore
	Templates *TemplateStore
	Variables *VariableStore
}

// New wires the stores over fs.
func New(fs billy.Filesystem, engine *templating.Engine, ed editor.Editor, logger *slog.Logger) *Store {
	variables := NewVariableStore(fs, ed, logger)
	projects := NewProjectStore(fs, variables, logger)
	return &Store{
		Projects:  projects,
		Templates: NewTemplateStore(fs, projects, engine, ed, logger),
		Variables: variables,
	}
}
