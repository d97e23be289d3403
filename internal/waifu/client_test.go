package waifu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ccastromar/wfx-bot/internal/httpx"
)

func newServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New("tok", WithBaseURL(ts.URL+"/api/v4"), WithTimeouts(httpx.Profile{ConnectTimeout: time.Second, Timeout: 2 * time.Second}))
	require.NoError(t, err)
	return ts, c
}

func TestAngryAndBaka(t *testing.T) {
	var paths []string
	_, c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"url":"https://cdn.waifu.it` + r.URL.Path + `.gif"}`))
	})

	angry, err := c.Angry(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://cdn.waifu.it/api/v4/angry.gif", angry.URL)

	baka, err := c.Baka(context.Background())
	require.NoError(t, err)
	require.Equal(t, "https://cdn.waifu.it/api/v4/baka.gif", baka.URL)

	require.Equal(t, []string{"/api/v4/angry", "/api/v4/baka"}, paths)
}

func TestFailuresAreSurfaced(t *testing.T) {
	_, unauthorized := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	})
	_, err := unauthorized.Angry(context.Background())
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, httpx.StatusCode(err))

	_, malformed := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	})
	img, err := malformed.Baka(context.Background())
	require.Nil(t, img)
	require.Equal(t, "decode", httpx.Kind(err))
}

func TestNew_Validation(t *testing.T) {
	_, err := New("")
	var ce *httpx.ConstructionError
	require.ErrorAs(t, err, &ce)

	_, err = New("tok", WithBaseURL("not a url"))
	require.ErrorAs(t, err, &ce)

	c, err := New("tok")
	require.NoError(t, err)
	require.Equal(t, "https://waifu.it/api/v4", c.http.BaseURL().String())
}
