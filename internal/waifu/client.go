// Package waifu talks to the waifu.it reaction GIF API.
package waifu

import (
	"context"
	"errors"

	"github.com/ccastromar/wfx-bot/internal/httpx"
)

const DefaultBaseURL = "https://waifu.it/api/v4"

// Image is a reference to a remotely hosted GIF.
type Image struct {
	URL string `json:"url"`
}

type Client struct {
	http *httpx.Client
}

type config struct {
	baseURL string
	profile httpx.Profile
}

type Option func(*config)

// WithBaseURL points the client at another deployment, mostly for tests.
func WithBaseURL(u string) Option {
	return func(c *config) { c.baseURL = u }
}

func WithTimeouts(p httpx.Profile) Option {
	return func(c *config) { c.profile = p }
}

// New builds a client authenticated with token. The token is mandatory.
func New(token string, opts ...Option) (*Client, error) {
	cfg := config{baseURL: DefaultBaseURL, profile: httpx.LookupProfile}
	for _, o := range opts {
		o(&cfg)
	}
	if token == "" {
		return nil, &httpx.ConstructionError{BaseURL: cfg.baseURL, Err: errors.New("waifu: token is empty")}
	}

	hc, err := httpx.New(cfg.baseURL, httpx.Options{Name: "waifu", Profile: cfg.profile, Token: token})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// Angry returns a random angry reaction.
func (c *Client) Angry(ctx context.Context) (*Image, error) {
	return c.get(ctx, "/angry")
}

// Baka returns a random baka reaction.
func (c *Client) Baka(ctx context.Context) (*Image, error) {
	return c.get(ctx, "/baka")
}

func (c *Client) get(ctx context.Context, path string) (*Image, error) {
	img, err := httpx.Get[Image](ctx, c.http, path)
	if err != nil {
		return nil, err
	}
	return &img, nil
}
