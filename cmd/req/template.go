package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/storage"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"t", "templates"},
	Short:   "Manage request templates",
	Long: `Manage request templates. Commands taking [PROJECT] [TEMPLATE] prompt for
whatever is missing.`,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create [PROJECT] [TEMPLATE]",
	Short: "Create a request template and open it in the editor",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return createTemplate(a, argAt(args, 0), argAt(args, 1))
	},
}

var templateListVariables bool

var templateListCmd = &cobra.Command{
	Use:     "list [PROJECT]",
	Aliases: []string{"ls"},
	Short:   "List projects, or the templates of a project",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return listTemplates(a, argAt(args, 0), templateListVariables)
	},
}

var (
	templateShowOutput string
	templateShowCopy   bool
)

var templateShowCmd = &cobra.Command{
	Use:   "show [PROJECT] [TEMPLATE]",
	Short: "Print a request template",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return showTemplate(a, argAt(args, 0), argAt(args, 1), templateShowOutput, templateShowCopy)
	},
}

var (
	templateEditVariables bool
	templateEditVariable  string
	templateEditYes       bool
)

var templateEditCmd = &cobra.Command{
	Use:   "edit [PROJECT] [TEMPLATE]",
	Short: "Edit a request template, or the project variables",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if templateEditVariables {
			return editVariable(a, argAt(args, 0), templateEditVariable)
		}
		return editTemplate(a, argAt(args, 0), argAt(args, 1), templateEditYes)
	},
}

var templateRenameProject bool

var templateRenameCmd = &cobra.Command{
	Use:   "rename [PROJECT] [TEMPLATE] [NEW_NAME]",
	Short: "Rename a request template, or with --project the project",
	Long: `Rename a request template. With --project the arguments are
[PROJECT] [NEW_NAME] and the project itself is renamed.`,
	Args: cobra.MaximumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if templateRenameProject {
			if len(args) > 2 {
				return fmt.Errorf("--project takes at most 2 arguments, got %d", len(args))
			}
			return renameProject(a, argAt(args, 0), argAt(args, 1))
		}
		return renameTemplate(a, argAt(args, 0), argAt(args, 1), argAt(args, 2))
	},
}

var templateRelocateCmd = &cobra.Command{
	Use:   "relocate FROM TO TEMPLATE [NEW_NAME]",
	Short: "Move a request template to another project",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return relocateTemplate(a, args[0], args[1], args[2], argAt(args, 3))
	},
}

var (
	templateDeleteProject bool
	templateDeleteYes     bool
)

var templateDeleteCmd = &cobra.Command{
	Use:   "delete [PROJECT] [TEMPLATE]",
	Short: "Delete a request template, or with --project the whole project",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		if templateDeleteProject {
			if len(args) > 1 {
				return fmt.Errorf("--project takes at most 1 argument, got %d", len(args))
			}
			return deleteProject(a, argAt(args, 0), templateDeleteYes)
		}
		return deleteTemplate(a, argAt(args, 0), argAt(args, 1), templateDeleteYes)
	},
}

func init() {
	templateListCmd.Flags().BoolVar(&templateListVariables, "variables", false, "list the project variables instead")

	templateShowCmd.Flags().StringVarP(&templateShowOutput, "output", "o", "json", "output format: json or yaml")
	templateShowCmd.Flags().BoolVar(&templateShowCopy, "copy", false, "copy the output to the clipboard")

	templateEditCmd.Flags().BoolVar(&templateEditVariables, "variables", false, "edit the project variables")
	templateEditCmd.Flags().StringVar(&templateEditVariable, "variable", "", "variable to edit with --variables")
	templateEditCmd.Flags().BoolVarP(&templateEditYes, "yes", "y", false, "save without confirming the diff")

	templateRenameCmd.Flags().BoolVar(&templateRenameProject, "project", false, "rename the project")

	templateDeleteCmd.Flags().BoolVar(&templateDeleteProject, "project", false, "delete the entire project")
	templateDeleteCmd.Flags().BoolVarP(&templateDeleteYes, "yes", "y", false, "do not ask for confirmation")

	templateCmd.AddCommand(
		templateCreateCmd,
		templateListCmd,
		templateShowCmd,
		templateEditCmd,
		templateRenameCmd,
		templateRelocateCmd,
		templateDeleteCmd,
	)
	rootCmd.AddCommand(templateCmd)
}

func createTemplate(a *app, project, name string) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	if name == "" {
		if name, err = a.selector.FreeText("Template name"); err != nil {
			return err
		}
	}

	t, err := a.store.Templates.Create(p, name)
	if err != nil {
		if t != nil {
			a.out.Notice("template %s was created with the default request", t.Name)
		}
		return err
	}
	a.out.Success("Template %s for project %s saved", t.Name, p.Name)
	return nil
}

func listTemplates(a *app, project string, variables bool) error {
	if project == "" && !variables {
		names, err := a.store.Projects.List()
		if err != nil {
			return err
		}
		a.out.Title("Projects")
		a.out.List(names, "")
		return nil
	}

	p, err := a.selectProject(project)
	if err != nil {
		return err
	}

	if variables {
		vars, err := a.store.Projects.Variables(p)
		if err != nil {
			return err
		}
		names := make([]string, len(vars))
		for i, v := range vars {
			names[i] = v.Name
		}
		a.out.Title("Variables")
		a.out.List(names, "")
		return nil
	}

	names, err := a.store.Templates.List(p)
	if err != nil {
		return err
	}
	a.out.Title("Templates")
	a.out.List(names, "")
	return nil
}

func showTemplate(a *app, project, name, output string, copyOut bool) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	t, err := a.selectTemplate(p, name)
	if err != nil {
		return err
	}

	var text string
	switch output {
	case "json":
		if text, err = t.Pretty(); err != nil {
			return err
		}
		a.out.Document(text)
	case "yaml":
		if text, err = t.YAML(); err != nil {
			return err
		}
		a.out.Text(text)
	default:
		return fmt.Errorf("unknown output format %q, use json or yaml", output)
	}

	if copyOut {
		return a.copyToClipboard(text)
	}
	return nil
}

// editTemplate opens the template in the editor, shows what changed and
// saves after confirmation.
func editTemplate(a *app, project, name string, yes bool) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	t, err := a.selectTemplate(p, name)
	if err != nil {
		return err
	}

	before, err := t.Pretty()
	if err != nil {
		return err
	}
	if err := a.store.Templates.Edit(t); err != nil {
		return err
	}
	after, err := t.Pretty()
	if err != nil {
		return err
	}

	diff := editor.Diff(t.Name+".json", before, after)
	if diff == "" {
		a.out.Notice("no changes")
		return nil
	}
	a.out.Text(diff)

	ok, err := a.confirm("Save changes?", yes)
	if err != nil || !ok {
		return err
	}
	if err := a.store.Templates.SaveIn(p, t); err != nil {
		return err
	}
	a.out.Success("Template %s from project %s saved", t.Name, p.Name)
	return nil
}

func renameTemplate(a *app, project, name, newName string) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	t, err := a.selectTemplate(p, name)
	if err != nil {
		return err
	}
	if newName == "" {
		if newName, err = a.selector.FreeText("New template name"); err != nil {
			return err
		}
	}

	oldName := t.Name
	if err := a.store.Templates.Rename(t, newName); err != nil {
		return err
	}
	a.out.Success("Template renamed from %s to %s", oldName, t.Name)
	return nil
}

func relocateTemplate(a *app, from, to, name, newName string) error {
	src, err := a.store.Projects.Get(from)
	if err != nil {
		return err
	}
	t, err := a.store.Templates.Load(src, name)
	if err != nil {
		return err
	}
	dst, err := a.store.Projects.Get(to)
	if err != nil {
		return err
	}

	if err := a.store.Templates.Relocate(t, dst, newName); err != nil {
		return err
	}
	a.out.Success("Template moved from %s/%s to %s/%s", src.Name, name, dst.Name, t.Name)
	return nil
}

func deleteTemplate(a *app, project, name string, yes bool) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	t, err := a.selectTemplate(p, name)
	if err != nil {
		return err
	}

	ok, err := a.confirm(fmt.Sprintf("Template %s will be deleted, do you wish to proceed?", t.Name), yes)
	if err != nil || !ok {
		return err
	}

	deleted := t.Name
	if err := a.store.Templates.Delete(t); err != nil {
		return err
	}
	a.out.Success("Template %s deleted", deleted)
	return nil
}

// templateRequest is the resolved request of t, reviewed in the editor
// unless review is false.
func templateRequest(a *app, p *storage.Project, t *storage.Template, review bool) (*storage.Request, error) {
	if review {
		return a.store.Templates.RequestWithVariables(p, t)
	}
	text, err := a.store.Templates.Resolve(p, t)
	if err != nil {
		return nil, err
	}
	req, err := storage.ParseRequest([]byte(text))
	if err != nil {
		return nil, err
	}
	return &req, nil
}
