package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/caiolrosa/req/pkg/editor"
	"github.com/caiolrosa/req/pkg/prompt"
	"github.com/caiolrosa/req/pkg/tui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	verbose bool
	rootCmd = &cobra.Command{
		Use:   "req",
		Short: "req - HTTP requests from reusable templates",
		Long: `req sends HTTP requests from the command line. Requests can be sent
ad hoc (req get URL) or saved as templates grouped in projects, with
{{placeholders}} filled from per-project variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $REQ_HOME/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log requests, responses and storage operations")
}

func initConfig() {
	// Load .env file if it exists (optional, warn if malformed)
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load .env file: %v\n", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	printer := tui.NewPrinter(os.Stderr)
	if errors.Is(err, editor.ErrEditAborted) || errors.Is(err, prompt.ErrCancelled) {
		printer.Notice("%v, nothing was changed", err)
		return
	}
	printer.Error(err)
	os.Exit(1)
}
