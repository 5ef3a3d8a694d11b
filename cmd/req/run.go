package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/caiolrosa/req/pkg/httpclient"
	"github.com/caiolrosa/req/pkg/storage"
	"github.com/caiolrosa/req/pkg/templating"
	"github.com/caiolrosa/req/pkg/tui"
)

type runOptions struct {
	request  requestFlags
	variable string
	noReview bool
	captures []string
	copy     bool
	repeat   httpclient.RepeatOptions
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run [PROJECT] [TEMPLATE]",
	Short: "Run a request from a template",
	Long: `Run a request from a template. Placeholders are filled from the selected
variable and the resolved request opens in the editor for a last review
before it is sent. Placeholders found in the response body are added to
the project variables.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		return runTemplate(cmd.Context(), a, argAt(args, 0), argAt(args, 1), runOpts)
	},
}

func init() {
	runOpts.request.register(runCmd)

	flags := runCmd.Flags()
	flags.StringVar(&runOpts.variable, "variable", "", "variable used to fill placeholders")
	flags.BoolVar(&runOpts.noReview, "no-review", false, "send without reviewing the request in the editor")
	flags.StringArrayVar(&runOpts.captures, "capture", nil, "store a response value in the variable, KEY=$.json.path, repeatable")
	flags.BoolVar(&runOpts.copy, "copy", false, "copy the response body to the clipboard")
	flags.IntVar(&runOpts.repeat.Count, "repeat", 1, "send the request N times and print a summary")
	flags.Float64Var(&runOpts.repeat.Rate, "rate", 0, "requests per second with --repeat, 0 for no limit")
	flags.IntVar(&runOpts.repeat.Concurrency, "concurrency", 1, "parallel requests with --repeat")

	rootCmd.AddCommand(runCmd)
}

// capture stores the value at a JSONPath of the response under a key.
type capture struct {
	key  string
	path string
}

func parseCaptures(raw []string) ([]capture, error) {
	captures := make([]capture, 0, len(raw))
	for _, r := range raw {
		key, path, ok := strings.Cut(r, "=")
		key, path = strings.TrimSpace(key), strings.TrimSpace(path)
		if !ok || path == "" {
			return nil, fmt.Errorf("invalid capture %q, must be 'KEY=$.path'", r)
		}
		if !templating.ValidIdentifier(key) {
			return nil, fmt.Errorf("invalid capture key %q: %w", key, storage.ErrInvalidName)
		}
		captures = append(captures, capture{key: key, path: path})
	}
	return captures, nil
}

func runTemplate(ctx context.Context, a *app, project, name string, opts runOptions) error {
	captures, err := parseCaptures(opts.captures)
	if err != nil {
		return err
	}
	if opts.repeat.Count < 1 {
		return fmt.Errorf("--repeat must be at least 1, got %d", opts.repeat.Count)
	}

	p, err := a.selectProject(project)
	if err != nil {
		return err
	}
	t, err := a.selectTemplate(p, name)
	if err != nil {
		return err
	}
	if err := a.selectVariable(p, opts.variable, len(captures) > 0); err != nil {
		return err
	}

	tr, err := templateRequest(a, p, t, !opts.noReview)
	if err != nil {
		return err
	}
	req, err := httpclient.FromTemplate(*tr)
	if err != nil {
		return err
	}
	if err := opts.request.apply(&req); err != nil {
		return err
	}
	client, err := opts.request.client(ctx, a)
	if err != nil {
		return err
	}

	var body string
	if opts.repeat.Count > 1 {
		summary, err := repeat(ctx, a, client, req, opts.repeat)
		if err != nil {
			return err
		}
		if summary.Last == nil {
			return fmt.Errorf("all %d requests failed: %w", summary.Total, summary.Err)
		}
		body = summary.Last.Body
	} else {
		resp, err := send(ctx, a, client, req)
		if err != nil {
			return err
		}
		body = resp.Body
	}

	return afterResponse(a, p, body, captures, opts.copy)
}

// afterResponse registers placeholders found in the response body, stores
// captured values and copies the body when asked.
func afterResponse(a *app, p *storage.Project, body string, captures []capture, copyBody bool) error {
	if err := a.store.Projects.UpdateVariablesFromResponse(p, body); err != nil {
		return fmt.Errorf("failed to register response placeholders: %w", err)
	}

	if len(captures) > 0 {
		v, err := a.store.Projects.CurrentVariable(p)
		if err != nil {
			return err
		}
		var errs []error
		for _, c := range captures {
			value, err := templating.Capture(body, c.path)
			if err != nil {
				errs = append(errs, fmt.Errorf("capture %s: %w", c.key, err))
				continue
			}
			if err := a.store.Variables.Set(v, c.key, value); err != nil {
				errs = append(errs, err)
				continue
			}
			a.out.Notice("%s = %v stored in variable %s", c.key, value, v.Name)
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
	}

	if copyBody {
		return a.copyToClipboard(body)
	}
	return nil
}

func repeat(ctx context.Context, a *app, client *httpclient.Client, req httpclient.Request, opts httpclient.RepeatOptions) (*httpclient.Summary, error) {
	var summary *httpclient.Summary
	title := fmt.Sprintf("%s %s x%d", strings.ToUpper(req.Method), req.URL, opts.Count)
	err := tui.RunWithSpinner(ctx, a.status, title, func(ctx context.Context) error {
		var err error
		summary, err = client.Repeat(ctx, req, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	if summary.Last != nil {
		a.out.Response(summary.Last, verbose)
	}
	a.out.Summary(summary)
	return summary, nil
}
