package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/templating"
)

// Template is a stored request definition. Project holds the owning
// project's name; callers re-fetch the project to observe changes to it.
type Template struct {
	Name    string
	Project string
	Path    string
	Request Request
}

// Document returns the compact JSON form that is written to disk.
func (t *Template) Document() (string, error) {
	data, err := encodeJSON(t.Request, false)
	if err != nil {
		return "", fmt.Errorf("failed to encode template %q: %w", t.Name, err)
	}
	return string(data), nil
}

// Pretty returns the indented JSON form shown in the editor.
func (t *Template) Pretty() (string, error) {
	data, err := encodeJSON(t.Request, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode template %q: %w", t.Name, err)
	}
	return string(data), nil
}

// YAML renders the request as YAML. Body numbers are emitted as YAML numbers.
func (t *Template) YAML() (string, error) {
	out := t.Request
	if out.Body != nil {
		raw, err := json.Marshal(out.Body)
		if err != nil {
			return "", fmt.Errorf("failed to encode template %q: %w", t.Name, err)
		}
		var body any
		if err := json.Unmarshal(raw, &body); err != nil {
			return "", fmt.Errorf("failed to decode template %q: %w", t.Name, err)
		}
		out.Body = body
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal template %q: %w", t.Name, err)
	}
	return string(data), nil
}

// TemplateStore reads, writes and moves template documents.
type TemplateStore struct {
	fs       billy.Filesystem
	paths    PathResolver
	projects *ProjectStore
	engine   *templating.Engine
	editor   editor.Editor
	logger   *slog.Logger
}

// NewTemplateStore creates a store over fs. Saving registers placeholders
// through projects; engine and ed serve RequestWithVariables and Edit.
func NewTemplateStore(fs billy.Filesystem, projects *ProjectStore, engine *templating.Engine, ed editor.Editor, logger *slog.Logger) *TemplateStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if engine == nil {
		engine = templating.NewEngine()
	}
	return &TemplateStore{fs: fs, projects: projects, engine: engine, editor: ed, logger: logger}
}

// Create writes the default request document for a new template, opens it
// in the editor and saves the result. When the edit is aborted or invalid
// the template is returned along with the error and the default document
// stays on disk.
func (s *TemplateStore) Create(p *Project, name string) (*Template, error) {
	path, err := s.paths.Template(p.Name, name)
	if err != nil {
		return nil, err
	}

	dir, err := isDir(s.fs, p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to check project %q: %w", p.Name, err)
	}
	if !dir {
		return nil, fmt.Errorf("project %q: %w", p.Name, ErrNotFound)
	}

	found, err := exists(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to check template %q: %w", name, err)
	}
	if found {
		return nil, fmt.Errorf("template %q in project %q: %w", name, p.Name, ErrAlreadyExists)
	}

	t := &Template{Name: name, Project: p.Name, Path: path, Request: DefaultRequest()}
	if err := s.write(t); err != nil {
		return nil, err
	}
	s.logger.Debug("created template", "project", p.Name, "template", name)

	if err := s.Edit(t); err != nil {
		return t, err
	}
	if err := s.save(p, t); err != nil {
		return t, err
	}
	return t, nil
}

// Load reads a template from disk.
func (s *TemplateStore) Load(p *Project, name string) (*Template, error) {
	path, err := s.paths.Template(p.Name, name)
	if err != nil {
		return nil, err
	}

	data, err := util.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("template %q in project %q: %w", name, p.Name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read template %q: %w", name, err)
	}

	req, err := ParseRequest(data)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	return &Template{Name: name, Project: p.Name, Path: path, Request: req}, nil
}

// List returns the names of the project's templates in sorted order.
func (s *TemplateStore) List(p *Project) ([]string, error) {
	entries, err := s.fs.ReadDir(p.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("project %q: %w", p.Name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read templates of %q: %w", p.Name, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !isDocument(entry.Name()) {
			continue
		}
		names = append(names, nameFromFile(entry.Name()))
	}
	slices.Sort(names)
	return names, nil
}

// Save writes the template and registers its placeholders on the owning
// project's variables. The write and the registration are not atomic
// together; a later save retries the registration.
func (s *TemplateStore) Save(t *Template) error {
	p, err := s.projects.Get(t.Project)
	if err != nil {
		return err
	}
	return s.save(p, t)
}

// SaveIn is Save for a caller already holding the owning project, so its
// cached variables observe the registration.
func (s *TemplateStore) SaveIn(p *Project, t *Template) error {
	if p.Name != t.Project {
		return fmt.Errorf("template %q belongs to project %q, not %q", t.Name, t.Project, p.Name)
	}
	return s.save(p, t)
}

func (s *TemplateStore) save(p *Project, t *Template) error {
	t.Request.normalize()
	if err := s.write(t); err != nil {
		return err
	}
	s.logger.Debug("saved template", "project", t.Project, "template", t.Name)

	doc, err := t.Document()
	if err != nil {
		return err
	}
	if err := s.projects.UpdateVariablesFromTemplate(p, doc); err != nil {
		return fmt.Errorf("failed to register variables of template %q: %w", t.Name, err)
	}
	return nil
}

// Edit opens the request in the editor and replaces it with the parsed
// result. It does not save. On abort or a malformed document t is unchanged.
func (s *TemplateStore) Edit(t *Template) error {
	initial, err := t.Pretty()
	if err != nil {
		return err
	}

	edited, err := s.editor.Edit(initial, documentExt)
	if err != nil {
		return err
	}

	req, err := ParseRequest([]byte(edited))
	if err != nil {
		return fmt.Errorf("template %q: %w", t.Name, err)
	}
	t.Request = req
	return nil
}

// Rename renames the template within its project.
func (s *TemplateStore) Rename(t *Template, newName string) error {
	path, err := s.paths.Template(t.Project, newName)
	if err != nil {
		return err
	}
	if err := s.move(t, path, t.Project, newName); err != nil {
		return err
	}
	s.logger.Debug("renamed template", "project", t.Project, "from", t.Name, "to", newName)

	t.Name = newName
	t.Path = path
	return nil
}

// Relocate moves the template into target under newName. An empty newName
// keeps the current name. The move falls back to copy and delete when the
// projects live on different filesystems.
func (s *TemplateStore) Relocate(t *Template, target *Project, newName string) error {
	if newName == "" {
		newName = t.Name
	}
	path, err := s.paths.Template(target.Name, newName)
	if err != nil {
		return err
	}

	dir, err := isDir(s.fs, target.Path)
	if err != nil {
		return fmt.Errorf("failed to check project %q: %w", target.Name, err)
	}
	if !dir {
		return fmt.Errorf("project %q: %w", target.Name, ErrNotFound)
	}

	if err := s.move(t, path, target.Name, newName); err != nil {
		return err
	}
	s.logger.Debug("relocated template", "from", t.Project+"/"+t.Name, "to", target.Name+"/"+newName)

	t.Project = target.Name
	t.Name = newName
	t.Path = path
	return nil
}

func (s *TemplateStore) move(t *Template, path, project, name string) error {
	found, err := exists(s.fs, path)
	if err != nil {
		return fmt.Errorf("failed to check template %q: %w", name, err)
	}
	if found {
		return fmt.Errorf("template %q in project %q: %w", name, project, ErrAlreadyExists)
	}

	if err := moveFile(s.fs, t.Path, path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("template %q in project %q: %w", t.Name, t.Project, ErrNotFound)
		}
		return fmt.Errorf("failed to move template %q: %w", t.Name, err)
	}
	return nil
}

// Delete removes the template's file and clears t.
func (s *TemplateStore) Delete(t *Template) error {
	if err := s.fs.Remove(t.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("template %q in project %q: %w", t.Name, t.Project, ErrNotFound)
		}
		return fmt.Errorf("failed to delete template %q: %w", t.Name, err)
	}
	s.logger.Debug("deleted template", "project", t.Project, "template", t.Name)
	*t = Template{}
	return nil
}

// Resolve substitutes every placeholder in the template's document using
// the project's selected variable. Without a selection only generated
// placeholders can be resolved; any input placeholder fails with
// ErrNoSelection.
func (s *TemplateStore) Resolve(p *Project, t *Template) (string, error) {
	if p.Name != t.Project {
		return "", fmt.Errorf("template %q belongs to project %q, not %q", t.Name, t.Project, p.Name)
	}

	doc, err := t.Document()
	if err != nil {
		return "", err
	}

	var resolver templating.Resolver
	current, err := s.projects.CurrentVariable(p)
	switch {
	case err == nil:
		resolver = current
	case errors.Is(err, ErrNoSelection):
		if inputs := templating.Extract(doc, templating.Input); len(inputs) > 0 {
			return "", fmt.Errorf("template %q uses {{%s}}: %w", t.Name, inputs[0], err)
		}
	default:
		return "", err
	}

	return s.engine.Substitute(doc, resolver)
}

// RequestWithVariables resolves the template, hands the result to the editor
// for a final review and returns the reviewed request.
func (s *TemplateStore) RequestWithVariables(p *Project, t *Template) (*Request, error) {
	resolved, err := s.Resolve(p, t)
	if err != nil {
		return nil, err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(resolved), "", "  "); err != nil {
		return nil, fmt.Errorf("template %q: %w: %v", t.Name, ErrMalformedDocument, err)
	}

	reviewed, err := s.editor.Edit(pretty.String(), documentExt)
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest([]byte(reviewed))
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", t.Name, err)
	}
	return &req, nil
}

func (s *TemplateStore) write(t *Template) error {
	data, err := encodeJSON(t.Request, false)
	if err != nil {
		return fmt.Errorf("failed to encode template %q: %w", t.Name, err)
	}
	if err := writeFileAtomic(s.fs, t.Path, data); err != nil {
		return fmt.Errorf("failed to save template %q: %w", t.Name, err)
	}
	return nil
}
