// Package client provides an HTTP client for the remote API, configured
// from the environment via internal/config.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"cfgctl/internal/config"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client calls the remote API with the configured key and timeout.
type Client struct {
	baseURL *url.URL
	apiKey  string
	debug   bool
	http    *http.Client
}

// New creates a client from a configuration. The configuration is
// validated first.
func New(cfg config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be an absolute http(s) URL", cfg.BaseURL)
	}

	return &Client{
		baseURL: u,
		apiKey:  cfg.APIKey,
		debug:   cfg.Debug,
		http:    &http.Client{Timeout: cfg.Timeout()},
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Get issues a GET request for path relative to the base URL and returns
// the response body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	target := c.resolve(path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	if c.debug {
		log.Debug().Str("method", req.Method).Str("url", target).Msg("sending request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if c.debug {
		log.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("received response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return body, nil
}

// Ping checks that the API root answers with a 2xx status.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Get(ctx, "/")
	return err
}

func (c *Client) resolve(path string) string {
	if path == "" {
		path = "/"
	}
	return c.baseURL.JoinPath(path).String()
}
