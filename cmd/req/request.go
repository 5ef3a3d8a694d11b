package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/caiolrosa/req/pkg/httpclient"
	"github.com/caiolrosa/req/pkg/tui"
)

// requestFlags are the header, auth and timeout flags shared by run and the
// ad-hoc method commands.
type requestFlags struct {
	headers []string
	timeout int
	bearer  string
	basic   string
	oauth2  httpclient.ClientCredentials
}

func (f *requestFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArrayVarP(&f.headers, "header", "H", nil, `request header "Key: Value", repeatable`)
	flags.IntVarP(&f.timeout, "timeout", "T", 0, "request timeout in seconds (default from config)")
	flags.StringVar(&f.bearer, "bearer", "", "bearer token")
	flags.StringVar(&f.basic, "basic", "", "basic auth credentials user[:password]")
	flags.StringVar(&f.oauth2.TokenURL, "oauth2-token-url", "", "oauth2 client credentials token URL")
	flags.StringVar(&f.oauth2.ClientID, "oauth2-client-id", "", "oauth2 client id")
	flags.StringVar(&f.oauth2.ClientSecret, "oauth2-client-secret", "", "oauth2 client secret")
	flags.StringSliceVar(&f.oauth2.Scopes, "oauth2-scope", nil, "oauth2 scope, repeatable")

	cmd.MarkFlagsMutuallyExclusive("bearer", "basic", "oauth2-token-url")
}

// apply adds headers and credentials to req. Flag headers override the ones
// already on the request.
func (f *requestFlags) apply(req *httpclient.Request) error {
	headers, err := httpclient.ParseHeaders(f.headers)
	if err != nil {
		return err
	}
	if req.Headers == nil {
		req.Headers = make(map[string]string, len(headers))
	}
	for k, v := range headers {
		req.Headers[k] = v
	}

	if f.bearer != "" {
		req.BearerToken = f.bearer
	}
	if f.basic != "" {
		auth, err := httpclient.ParseBasicAuth(f.basic)
		if err != nil {
			return err
		}
		req.BasicAuth = auth
	}
	return nil
}

// client builds the HTTP client for one command run.
func (f *requestFlags) client(ctx context.Context, a *app) (*httpclient.Client, error) {
	if f.timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %d", f.timeout)
	}
	timeout := a.cfg.Timeout
	if f.timeout > 0 {
		timeout = time.Duration(f.timeout) * time.Second
	}

	opts := []httpclient.Option{
		httpclient.WithTimeout(timeout),
		httpclient.WithLogger(a.logger),
	}
	if f.oauth2.Enabled() {
		ts, err := f.oauth2.TokenSource(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, httpclient.WithTokenSource(ts))
	}
	return httpclient.New(opts...), nil
}

type bodyFlags struct {
	json string
	data string
}

func (f *bodyFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.json, "json", "", "JSON request body")
	cmd.Flags().StringVar(&f.data, "data", "", "form encoded request body")
	cmd.MarkFlagsMutuallyExclusive("json", "data")
}

func (f *bodyFlags) apply(req *httpclient.Request) {
	switch {
	case f.json != "":
		req.SetJSON(f.json)
	case f.data != "":
		req.SetForm(f.data)
	}
}

func init() {
	rootCmd.AddCommand(
		newMethodCmd("GET", false),
		newMethodCmd("POST", true),
		newMethodCmd("PUT", true),
		newMethodCmd("PATCH", true),
		newMethodCmd("DELETE", false),
	)
}

// newMethodCmd builds the ad-hoc command for one HTTP method.
func newMethodCmd(method string, withBody bool) *cobra.Command {
	var (
		reqFlags  requestFlags
		body      bodyFlags
		copyBody  bool
		lowerName = strings.ToLower(method)
	)

	cmd := &cobra.Command{
		Use:   lowerName + " URL",
		Short: "Send a " + method + " request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}

			req := httpclient.Request{Method: method, URL: args[0]}
			if err := reqFlags.apply(&req); err != nil {
				return err
			}
			body.apply(&req)

			client, err := reqFlags.client(cmd.Context(), a)
			if err != nil {
				return err
			}
			resp, err := send(cmd.Context(), a, client, req)
			if err != nil {
				return err
			}
			if copyBody {
				return a.copyToClipboard(resp.Body)
			}
			return nil
		},
	}

	reqFlags.register(cmd)
	if withBody {
		body.register(cmd)
	}
	cmd.Flags().BoolVar(&copyBody, "copy", false, "copy the response body to the clipboard")
	return cmd
}

// send dispatches req behind a spinner and prints the response. The request
// line and all headers are printed with --verbose.
func send(ctx context.Context, a *app, client *httpclient.Client, req httpclient.Request) (*httpclient.Response, error) {
	if verbose {
		a.out.Request(req)
	}

	var resp *httpclient.Response
	title := fmt.Sprintf("%s %s", strings.ToUpper(req.Method), req.URL)
	err := tui.RunWithSpinner(ctx, a.status, title, func(ctx context.Context) error {
		var err error
		resp, err = client.Do(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	a.out.Response(resp, verbose)
	return resp, nil
}
