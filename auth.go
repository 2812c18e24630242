package grist

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Fallback locations searched when no explicit key is configured.
const (
	apiKeyEnvVar   = "GRIST_API_KEY"
	apiKeyFileName = ".grist-api-key"
)

// credential is the lazily resolved API key. It moves through three
// states: unresolved, resolved to a token, or known absent (explicitly
// keyless). The transition happens at most once; the sync.Once keeps it
// single-shot even under concurrent callers.
type credential struct {
	once   sync.Once
	token  string
	absent bool
	err    error
}

// resolveKey resolves the credential on first use: explicit key, then
// environment variable, then per-user key file. An explicit empty key
// means deliberately keyless and suppresses ErrNoAPIKey, leaving access
// control to the server.
func (c *Client) resolveKey() (string, error) {
	c.cred.once.Do(func() {
		if c.explicitKey != nil {
			if *c.explicitKey == "" {
				c.cred.absent = true
			} else {
				c.cred.token = *c.explicitKey
			}
			return
		}

		if key := os.Getenv(apiKeyEnvVar); key != "" {
			c.cred.token = key
			return
		}

		if home, err := os.UserHomeDir(); err == nil {
			data, err := os.ReadFile(filepath.Join(home, apiKeyFileName))
			if err == nil {
				if key := strings.TrimSpace(string(data)); key != "" {
					c.cred.token = key
					return
				}
			}
		}

		c.cred.err = fmt.Errorf("%w: set %s or create ~/%s", ErrNoAPIKey, apiKeyEnvVar, apiKeyFileName)
	})

	if c.cred.err != nil {
		return "", c.cred.err
	}
	return c.cred.token, nil
}

// authClient returns the HTTP client for one call, wrapping the base
// transport with a bearer token source when a key is available.
func (c *Client) authClient(ctx context.Context) (*http.Client, error) {
	key, err := c.resolveKey()
	if err != nil {
		return nil, err
	}
	if key == "" {
		return c.httpClient, nil
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: key})), nil
}

// keyless reports whether the client has completed resolution without
// finding a credential, used to enrich authorization failures.
func (c *Client) keyless() bool {
	return c.cred.token == ""
}
