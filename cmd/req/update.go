package main

import (
	"fmt"
	"os"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/spf13/cobra"

	"github.com/caiolrosa/req/pkg/prompt"
	"github.com/caiolrosa/req/pkg/tui"
)

const repoSlug = "caiolrosa/req"

var updateYes bool

func init() {
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "update without asking")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update req to the latest release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := tui.NewPrinter(cmd.OutOrStdout())
		if version == "dev" {
			out.Notice("this is a development build, update is not supported")
			return nil
		}

		current, err := semver.Parse(version)
		if err != nil {
			return fmt.Errorf("failed to parse current version %q: %w", version, err)
		}

		latest, found, err := selfupdate.DetectLatest(repoSlug)
		if err != nil {
			return fmt.Errorf("failed to detect latest version: %w", err)
		}
		if !found || latest.Version.LTE(current) {
			out.Success("req %s is the latest version", current)
			return nil
		}

		if !updateYes {
			if !tui.IsTerminal(os.Stdin) {
				return fmt.Errorf("req %s is available, pass --yes to update", latest.Version)
			}
			ok, err := prompt.New(false).Confirm(fmt.Sprintf("Update to %s?", latest.Version))
			if err != nil || !ok {
				return err
			}
		}

		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("could not locate executable path: %w", err)
		}
		if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
			return fmt.Errorf("failed to update binary: %w", err)
		}
		out.Success("Updated to version %s", latest.Version)
		return nil
	},
}
