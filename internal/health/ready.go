package health

import (
	"context"
	"net/http"
	"time"

	"github.com/ccastromar/wfx-bot/internal/logx"
	"github.com/ccastromar/wfx-bot/internal/runtime"
)

// pingTimeout keeps the probe fast even when the WebUI is busy generating.
const pingTimeout = 2 * time.Second

func ReadyHandler(rt *runtime.Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rt.GuideLoaded {
			http.Error(w, "guide not loaded", http.StatusServiceUnavailable)
			return
		}

		if rt.Gateway == nil || !rt.Gateway.Connected() {
			http.Error(w, "discord gateway not connected", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := rt.Diffusion.Ping(ctx); err != nil {
			logx.Warn("HTTP", "ready: stable diffusion unreachable: %v", err)
			http.Error(w, "stable diffusion unreachable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}
