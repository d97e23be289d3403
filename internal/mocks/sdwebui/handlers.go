// Package sdwebui fakes the Stable Diffusion WebUI API: txt2img returns
// solid color PNGs and an info string echoing the request.
package sdwebui

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand"
	"net/http"
)

const (
	modelName = "animagineXL40_v4Opt"
	modelHash = "6327eca98b"
	// keep the fake images tiny whatever size was asked for
	maxSide = 64
)

func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("POST /sdapi/v1/txt2img", txt2img)
	mux.HandleFunc("GET /sdapi/v1/sd-models", sdModels)
}

type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	CFGScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
	Steps          int     `json:"steps"`
	BatchSize      int     `json:"batch_size"`
}

func txt2img(w http.ResponseWriter, r *http.Request) {
	var req txt2imgRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"detail":"invalid body"}`, http.StatusUnprocessableEntity)
		return
	}
	log.Printf("[MOCK SD] txt2img %dx%d steps=%d", req.Width, req.Height, req.Steps)

	if req.Width%8 != 0 || req.Height%8 != 0 {
		http.Error(w, `{"detail":"width and height must be multiples of 8"}`, http.StatusUnprocessableEntity)
		return
	}
	if req.Seed == -1 {
		req.Seed = rand.Int63n(1 << 32)
	}
	n := req.BatchSize
	if n < 1 {
		n = 1
	}

	images := make([]string, 0, n)
	for i := 0; i < n; i++ {
		data, err := solidPNG(req.Width, req.Height, uint8(req.Seed+int64(i)))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}

	info, _ := json.Marshal(map[string]any{
		"prompt":          req.Prompt,
		"negative_prompt": req.NegativePrompt,
		"seed":            req.Seed,
		"width":           req.Width,
		"height":          req.Height,
		"sampler_name":    "Euler a",
		"cfg_scale":       req.CFGScale,
		"steps":           req.Steps,
		"sd_model_name":   modelName,
		"sd_model_hash":   modelHash,
		"version":         "mock",
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"images":     images,
		"parameters": req,
		"info":       string(info),
	})
}

func sdModels(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode([]map[string]any{{
		"title":      modelName + ".safetensors [" + modelHash + "]",
		"model_name": modelName,
		"hash":       modelHash,
		"filename":   "/models/Stable-diffusion/" + modelName + ".safetensors",
	}})
}

func solidPNG(w, h int, shade uint8) ([]byte, error) {
	w, h = clamp(w), clamp(h)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c := color.RGBA{R: 0xFF, G: 0xD6, B: shade, A: 0xFF}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func clamp(v int) int {
	if v < 1 {
		return 1
	}
	if v > maxSide {
		return maxSide
	}
	return v
}
