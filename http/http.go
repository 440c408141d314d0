// Package http provides clients for the WordPress REST API (the migration
// source) and a Sanity-compatible content API (the migration target).
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/wpmigrate"
)

// DefaultTimeout is the default timeout for HTTP requests.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent identifies the migrator to both APIs.
const DefaultUserAgent = "wpmigrate/1.0"

// options holds settings shared by the clients.
type options struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	username  string
	password  string
	token     string
}

// Option configures a client.
type Option func(*options)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. The timeout option is
// ignored when a client is supplied.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithBasicAuth authenticates requests with a user name and application password.
func WithBasicAuth(username, password string) Option {
	return func(o *options) {
		o.username = username
		o.password = password
	}
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(o *options) {
		o.token = token
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = &http.Client{Timeout: o.timeout}
	}
	return o
}

// do sends req with the configured credentials. Non-2xx responses are
// closed and returned as application errors.
func (o *options) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", o.userAgent)
	if o.username != "" {
		req.SetBasicAuth(o.username, o.password)
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, transportError(req.Context(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, statusError(req, resp)
	}
	return resp, nil
}

// getJSON decodes the JSON response of a GET request into v.
func (o *options) getJSON(ctx context.Context, url string, v any) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return resp, nil
}

// transportError maps a failed round trip. Timeouts are transient;
// cancellation is returned as is.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() == context.Canceled {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return wpmigrate.Errorf(wpmigrate.EUNAVAILABLE, "request timed out: %v", err)
	}
	return wpmigrate.Errorf(wpmigrate.EUNAVAILABLE, "request failed: %v", err)
}

// apiError is the error body returned by both APIs.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   struct {
		Description string `json:"description"`
	} `json:"error"`
}

// statusError maps an HTTP status to an application error code.
func statusError(req *http.Request, resp *http.Response) error {
	msg := http.StatusText(resp.StatusCode)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var ae apiError
	if json.Unmarshal(body, &ae) == nil {
		switch {
		case ae.Message != "":
			msg = ae.Message
		case ae.Error.Description != "":
			msg = ae.Error.Description
		}
	}

	code := wpmigrate.EINTERNAL
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		code = wpmigrate.EUNAVAILABLE
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		code = wpmigrate.EUNAUTHORIZED
	case resp.StatusCode == http.StatusNotFound:
		code = wpmigrate.ENOTFOUND
	case resp.StatusCode == http.StatusBadRequest:
		code = wpmigrate.EINVALID
	case resp.StatusCode == http.StatusConflict:
		code = wpmigrate.ECONFLICT
	}
	return wpmigrate.Errorf(code, "HTTP %d for %s %s: %s", resp.StatusCode, req.Method, req.URL.Redacted(), msg)
}
