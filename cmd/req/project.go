package main

import (
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		p, err := a.store.Projects.Create(args[0])
		if err != nil {
			return err
		}
		a.out.Success("Project %s created", p.Name)
		return nil
	},
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		names, err := a.store.Projects.List()
		if err != nil {
			return err
		}
		a.out.Title("Projects")
		a.out.List(names, a.cfg.DefaultProject)
		return nil
	},
}

var projectRenameCmd = &cobra.Command{
	Use:   "rename [NAME] [NEW_NAME]",
	Short: "Rename a project",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return renameProject(a, argAt(args, 0), argAt(args, 1))
	},
}

var projectDeleteYes bool

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [NAME]",
	Short: "Delete a project with all its templates and variables",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return deleteProject(a, argAt(args, 0), projectDeleteYes)
	},
}

func init() {
	projectDeleteCmd.Flags().BoolVarP(&projectDeleteYes, "yes", "y", false, "do not ask for confirmation")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectRenameCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func renameProject(a *app, name, newName string) error {
	p, err := a.selectProject(name)
	if err != nil {
		return err
	}
	if newName == "" {
		if newName, err = a.selector.FreeText("New project name"); err != nil {
			return err
		}
	}

	oldName := p.Name
	if err := a.store.Projects.Rename(p, newName); err != nil {
		return err
	}
	a.out.Success("Project renamed from %s to %s", oldName, p.Name)
	return nil
}

func deleteProject(a *app, name string, yes bool) error {
	p, err := a.selectProject(name)
	if err != nil {
		return err
	}

	ok, err := a.confirm("The entire project "+p.Name+" will be deleted, do you wish to proceed?", yes)
	if err != nil || !ok {
		return err
	}

	deleted := p.Name
	if err := a.store.Projects.Delete(p); err != nil {
		return err
	}
	a.out.Success("Project %s deleted", deleted)
	return nil
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
