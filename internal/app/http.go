package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ccastromar/wfx-bot/internal/health"
	"github.com/ccastromar/wfx-bot/internal/logx"
	"github.com/ccastromar/wfx-bot/internal/metrics"
	"github.com/ccastromar/wfx-bot/internal/runtime"
)

// HTTPServer serves the ops endpoints: health probes and metrics.
type HTTPServer struct {
	srv *http.Server
}

func NewHTTPServer(port string, rt *runtime.Runtime) *HTTPServer {
	if port == "" {
		port = "9090"
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", health.LiveHandler)
	mux.HandleFunc("/health/ready", health.ReadyHandler(rt))
	mux.HandleFunc("/metrics", metrics.ServeHTTP)

	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           instrument(secureMiddleware(mux)),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1MB
		},
	}
}

func (h *HTTPServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logx.Info("HTTP", "listening on %s", h.srv.Addr)
		errCh <- h.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logx.Info("HTTP", "shutting down server...")
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return h.srv.Shutdown(shutCtx)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

var knownRoutes = map[string]bool{
	"/health/live":  true,
	"/health/ready": true,
	"/metrics":      true,
}

// routeLabel keeps the path label bounded whatever gets requested.
func routeLabel(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequests.Inc(map[string]string{
			"method": r.Method,
			"path":   routeLabel(r.URL.Path),
			"status": strconv.Itoa(rec.status),
		})
	})
}

// secureMiddleware blocks TRACE, caps request bodies and sets the usual
// headers. The ops server has no browser UI so everything is locked down.
func secureMiddleware(next http.Handler) http.Handler {
	const maxBody = 1 << 16
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodTrace {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")

		next.ServeHTTP(w, r)
	})
}
