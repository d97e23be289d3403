// Package sd is a small client for the Stable Diffusion WebUI REST API
// (AUTOMATIC1111 and compatible forks).
package sd

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ccastromar/wfx-bot/internal/httpx"
)

const (
	txt2imgPath = "sdapi/v1/txt2img"
	modelsPath  = "sdapi/v1/sd-models"
)

type Client struct {
	http *httpx.Client
}

type Option func(*httpx.Profile)

func WithTimeouts(p httpx.Profile) Option {
	return func(dst *httpx.Profile) { *dst = p }
}

// New builds a client for the WebUI at baseURL, e.g. http://localhost:7860.
// The API is unauthenticated.
func New(baseURL string, opts ...Option) (*Client, error) {
	profile := httpx.GenerationProfile
	for _, o := range opts {
		o(&profile)
	}
	hc, err := httpx.New(baseURL, httpx.Options{Name: "sd", Profile: profile})
	if err != nil {
		return nil, err
	}
	return &Client{http: hc}, nil
}

// Generate runs txt2img with p (defaults filled in) and decodes the result.
// Either every image decodes or the call fails with no images.
func (c *Client) Generate(ctx context.Context, p GenerateParams) (*GenerateResult, error) {
	raw, err := httpx.Post[txt2imgResponse](ctx, c.http, txt2imgPath, p.Body())
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw)
}

func decodeResponse(raw txt2imgResponse) (*GenerateResult, error) {
	images := make([][]byte, 0, len(raw.Images))
	for i, enc := range raw.Images {
		img, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, &httpx.DecodeError{What: fmt.Sprintf("image %d", i), Err: err}
		}
		images = append(images, img)
	}

	var info Info
	if err := json.Unmarshal([]byte(raw.Info), &info); err != nil {
		return nil, &httpx.DecodeError{What: "info", Err: err}
	}

	return &GenerateResult{Images: images, Info: info}, nil
}

// Models lists the checkpoints the WebUI can load.
func (c *Client) Models(ctx context.Context) ([]Model, error) {
	return httpx.Get[[]Model](ctx, c.http, modelsPath)
}

// Ping reports whether the WebUI answers its API.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Models(ctx)
	return err
}
