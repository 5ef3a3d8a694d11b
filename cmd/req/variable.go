package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/caiolrosa/req/pkg/templating"
)

var varProject string

var varCmd = &cobra.Command{
	Use:     "var",
	Aliases: []string{"vars", "variable"},
	Short:   "Manage project variables",
	Long: `Manage project variables. A variable maps placeholder names to the
values substituted into templates of its project.`,
}

var varCreateCmd = &cobra.Command{
	Use:   "create [NAME]",
	Short: "Create a variable with every placeholder already known to the project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return createVariable(a, varProject, argAt(args, 0))
	},
}

var varListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the variables of a project",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return listTemplates(a, varProject, true)
	},
}

var varShowCmd = &cobra.Command{
	Use:   "show [NAME]",
	Short: "Print the values of a variable",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return showVariable(a, varProject, argAt(args, 0))
	},
}

var varEditCmd = &cobra.Command{
	Use:   "edit [NAME]",
	Short: "Edit a variable in the editor",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return editVariable(a, varProject, argAt(args, 0))
	},
}

var varSetName string

var varSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one value of a variable",
	Long: `Set one value of a variable. VALUE is read as a JSON number, boolean or
string; anything else is stored as a plain string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return setVariableValue(a, varProject, varSetName, args[0], args[1])
	},
}

var varDeleteYes bool

var varDeleteCmd = &cobra.Command{
	Use:   "delete [NAME]",
	Short: "Delete a variable",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return deleteVariable(a, varProject, argAt(args, 0), varDeleteYes)
	},
}

func init() {
	varCmd.PersistentFlags().StringVarP(&varProject, "project", "p", "", "project of the variable")
	varSetCmd.Flags().StringVar(&varSetName, "variable", "", "variable to change")
	varDeleteCmd.Flags().BoolVarP(&varDeleteYes, "yes", "y", false, "do not ask for confirmation")

	varCmd.AddCommand(varCreateCmd, varListCmd, varShowCmd, varEditCmd, varSetCmd, varDeleteCmd)
	rootCmd.AddCommand(varCmd)
}

// createVariable adds a variable to the project. It starts with every key of
// the project's existing variables so templates resolve against it.
func createVariable(a *app, project, name string) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	if name == "" {
		if name, err = a.selector.FreeText("Variable name"); err != nil {
			return err
		}
	}

	vars, err := a.store.Projects.Variables(p)
	if err != nil {
		return err
	}
	var keys []string
	for _, v := range vars {
		keys = append(keys, v.Keys()...)
	}

	v, err := a.store.Projects.CreateVariable(p, name)
	if err != nil {
		return err
	}
	if _, err := a.store.Variables.AddMissing(v, templating.Unique(keys)); err != nil {
		return err
	}
	a.out.Success("Variable %s for project %s created", v.Name, p.Name)
	return nil
}

func showVariable(a *app, project, name string) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	if err := a.selectVariable(p, name, false); err != nil {
		return err
	}
	v, err := a.store.Projects.CurrentVariable(p)
	if err != nil {
		return err
	}

	values := make(map[string]string, len(v.Contents))
	for _, key := range v.Keys() {
		text, err := templating.FormatValue(v.Contents[key])
		if err != nil {
			return fmt.Errorf("variable %q key %q: %w", v.Name, key, err)
		}
		values[key] = text
	}
	a.out.Title(v.Name)
	a.out.KeyValues(values)
	return nil
}

func editVariable(a *app, project, name string) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	if err := a.selectVariable(p, name, false); err != nil {
		return err
	}
	v, err := a.store.Projects.CurrentVariable(p)
	if err != nil {
		return err
	}

	if err := a.store.Variables.Edit(v); err != nil {
		return err
	}
	a.out.Success("Variable %s edited for project %s", v.Name, p.Name)
	return nil
}

func setVariableValue(a *app, project, name, key, raw string) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	if err := a.selectVariable(p, name, true); err != nil {
		return err
	}
	v, err := a.store.Projects.CurrentVariable(p)
	if err != nil {
		return err
	}

	if err := a.store.Variables.Set(v, key, parseValue(raw)); err != nil {
		return err
	}
	a.out.Success("%s set in variable %s", key, v.Name)
	return nil
}

func deleteVariable(a *app, project, name string, yes bool) error {
	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	if err := a.selectVariable(p, name, false); err != nil {
		return err
	}
	v, err := a.store.Projects.CurrentVariable(p)
	if err != nil {
		return err
	}

	ok, err := a.confirm(fmt.Sprintf("Variable %s will be deleted, do you wish to proceed?", v.Name), yes)
	if err != nil || !ok {
		return err
	}

	deleted := v.Name
	if err := a.store.Projects.RemoveVariable(p, deleted); err != nil {
		return err
	}
	a.out.Success("Variable %s deleted", deleted)
	return nil
}

// parseValue reads a command line value as a JSON scalar, falling back to the
// raw string for anything that is not a number, boolean or quoted string.
func parseValue(raw string) any {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return raw
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return raw
	}
	if templating.ValidateValue(v) != nil {
		return raw
	}
	return v
}
