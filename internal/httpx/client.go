// Package httpx is the small typed HTTP client shared by the backend
// adapters. A Client owns one base URL, one timeout profile and one
// connection pool; it is safe for concurrent use and never changes after
// New returns.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ccastromar/wfx-bot/internal/logx"
	"github.com/ccastromar/wfx-bot/internal/metrics"
)

// ErrInvalidPath is returned when a caller passes something other than a
// path relative to the base URL.
var ErrInvalidPath = errors.New("httpx: path must be relative to the base url")

const (
	userAgent    = "wfx-bot/0.3"
	maxErrorBody = 512
)

// Profile is a two phase timeout: ConnectTimeout bounds dial and TLS
// handshake, Timeout bounds the whole exchange including the body read.
type Profile struct {
	ConnectTimeout time.Duration
	Timeout        time.Duration
}

var (
	// LookupProfile suits fast metadata lookups.
	LookupProfile = Profile{ConnectTimeout: 10 * time.Second, Timeout: 60 * time.Second}
	// GenerationProfile suits diffusion workloads that take minutes.
	GenerationProfile = Profile{ConnectTimeout: 10 * time.Second, Timeout: 3 * time.Minute}
)

type Options struct {
	// Name labels logs and metrics, e.g. "waifu" or "sd".
	Name    string
	Profile Profile
	// Token, when set, is sent as a bearer credential on every request.
	Token string
}

type Client struct {
	name  string
	base  *url.URL
	token string
	http  *http.Client
}

// New validates baseURL and the timeout profile and builds the client.
// Every failure is a *ConstructionError.
func New(baseURL string, opts Options) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, &ConstructionError{BaseURL: baseURL, Err: err}
	}
	if err := opts.Profile.validate(); err != nil {
		return nil, &ConstructionError{BaseURL: baseURL, Err: err}
	}

	name := opts.Name
	if name == "" {
		name = base.Host
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   opts.Profile.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = opts.Profile.ConnectTimeout

	return &Client{
		name:  name,
		base:  base,
		token: opts.Token,
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Profile.Timeout,
		},
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url needs an http or https scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("base url has no host")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, errors.New("base url must not carry a query or fragment")
	}
	return u, nil
}

func (p Profile) validate() error {
	if p.ConnectTimeout <= 0 {
		return fmt.Errorf("connect timeout must be positive, got %s", p.ConnectTimeout)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", p.Timeout)
	}
	if p.ConnectTimeout > p.Timeout {
		return fmt.Errorf("connect timeout %s exceeds overall timeout %s", p.ConnectTimeout, p.Timeout)
	}
	return nil
}

// Name returns the label used for logs and metrics.
func (c *Client) Name() string { return c.name }

// BaseURL returns a copy of the base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

// Resolve joins path onto the base URL path. Absolute and scheme relative
// references, ".." segments, queries and fragments are rejected, so requests
// always stay under the configured base.
func (c *Client) Resolve(path string) (string, error) {
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	// the endpoints take no query strings, and a ".." would climb out of
	// the base path
	if ref.RawQuery != "" || ref.Fragment != "" || strings.HasSuffix(path, "?") || strings.HasSuffix(path, "#") {
		return "", fmt.Errorf("%w: query or fragment in %q", ErrInvalidPath, path)
	}
	for _, seg := range strings.Split(ref.Path, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q leaves the base path", ErrInvalidPath, path)
		}
	}
	return c.base.JoinPath(path).String(), nil
}

// Get issues a GET against path and decodes the JSON response into T.
func Get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Post sends body as JSON to path and decodes the JSON response into T.
func Post[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.do(ctx, http.MethodPost, path, body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := c.Resolve(path)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpx: marshal %s body: %w", c.name, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &TransportError{Method: method, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	err = c.exchange(req, out)
	c.observe(method, target, start, err)
	return err
}

func (c *Client) exchange(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPStatusError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	// a failed read is a transport problem, only a complete body can be a
	// decode problem
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{What: "response body", Err: err}
	}
	return nil
}

func (c *Client) observe(method, target string, start time.Time, err error) {
	elapsed := time.Since(start)
	outcome := Kind(err)
	lbls := map[string]string{"backend": c.name, "outcome": outcome}
	metrics.BackendCalls.Inc(lbls)
	metrics.BackendDur.Observe(lbls, elapsed.Seconds())

	if err != nil {
		logx.Debug("HTTP", "%s %s failed after %v (%s)", method, target, elapsed, outcome)
		return
	}
	logx.Debug("HTTP", "%s %s ok in %v", method, target, elapsed)
}
