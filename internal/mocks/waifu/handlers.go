// Package waifu fakes the reaction GIF API for local runs and e2e tests.
package waifu

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"log"
	"net/http"
	"strings"
)

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v4/angry", reaction("angry"))
	mux.HandleFunc("GET /api/v4/baka", reaction("baka"))
	mux.HandleFunc("GET /mock/media/{name}", serveGIF)
}

func reaction(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer") || strings.TrimSpace(strings.TrimPrefix(auth, "Bearer")) == "" {
			http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		log.Println("[MOCK WAIFU]", r.URL.Path)

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"url": scheme + "://" + r.Host + "/mock/media/" + kind + ".gif",
		})
	}
}

func serveGIF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, blinkGIF()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	_, _ = w.Write(buf.Bytes())
}

// blinkGIF is a two frame 16x16 animation.
func blinkGIF() *gif.GIF {
	out := &gif.GIF{}
	for _, c := range []color.Color{color.RGBA{R: 0xFF, G: 0xD6, B: 0xA5, A: 0xFF}, color.Black} {
		frame := image.NewPaletted(image.Rect(0, 0, 16, 16), palette.Plan9)
		for y := 0; y < 16; y++ {
			for x := 0; x < 16; x++ {
				frame.Set(x, y, c)
			}
		}
		out.Image = append(out.Image, frame)
		out.Delay = append(out.Delay, 50)
	}
	return out
}
