package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ParseHeader splits a "Key: Value" header flag.
func ParseHeader(raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, ":")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid header %q, must be 'KEY: VALUE'", raw)
	}
	return key, strings.TrimSpace(value), nil
}

// ParseHeaders parses repeated header flags. Later keys win.
func ParseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, err := ParseHeader(h)
		if err != nil {
			return nil, err
		}
		headers[key] = value
	}
	return headers, nil
}

// ParseBasicAuth parses "user[:password]".
func ParseBasicAuth(raw string) (*BasicAuth, error) {
	user, pass, _ := strings.Cut(strings.TrimSpace(raw), ":")
	if user == "" {
		return nil, fmt.Errorf("invalid basic auth credentials, format must be 'user:password'")
	}
	return &BasicAuth{User: user, Password: pass}, nil
}

// ClientCredentials configures the oauth2 client credentials grant.
type ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Enabled reports whether any oauth2 setting was given.
func (cc ClientCredentials) Enabled() bool {
	return cc.TokenURL != "" || cc.ClientID != "" || cc.ClientSecret != ""
}

// TokenSource validates the settings and returns a caching token source.
func (cc ClientCredentials) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if cc.TokenURL == "" {
		return nil, fmt.Errorf("oauth2 token URL is required")
	}
	if _, err := url.ParseRequestURI(cc.TokenURL); err != nil {
		return nil, fmt.Errorf("invalid oauth2 token URL: %w", err)
	}
	if cc.ClientID == "" {
		return nil, fmt.Errorf("oauth2 client id is required")
	}
	if cc.ClientSecret == "" {
		return nil, fmt.Errorf("oauth2 client secret is required")
	}

	config := clientcredentials.Config{
		ClientID:     cc.ClientID,
		ClientSecret: cc.ClientSecret,
		TokenURL:     cc.TokenURL,
		Scopes:       cc.Scopes,
	}
	return config.TokenSource(ctx), nil
}
