package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alfredjeanlab/alcviz/internal/render"
)

// InstanceHeader carries the server instance id on every response.
const InstanceHeader = "X-Alcviz-Instance"

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header. A nil gatherer leaves
// /metrics unregistered.
func (s *Server) NewHTTPHandler(authToken string, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instanceHeader)
	r.Use(func(next http.Handler) http.Handler { return AuthMiddleware(authToken, next) })

	r.Get("/", s.handleIndex)
	r.Get("/v1/health", s.handleHealth)
	r.Get("/v1/frames", s.handleListFrames)
	r.Get("/v1/frames/{pane}", s.handleGetFrame)
	r.Get("/v1/events/stream", s.handleEventStream)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) instanceHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(InstanceHeader, s.instanceID)
		next.ServeHTTP(w, r)
	})
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListFrames handles GET /v1/frames.
func (s *Server) handleListFrames(w http.ResponseWriter, _ *http.Request) {
	out := make(map[render.Pane]*render.Frame, 2)
	for _, pane := range []render.Pane{render.PaneTopology, render.PaneStats} {
		if f := s.Latest(pane); f != nil {
			out[pane] = f
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"instance": s.instanceID,
		"frames":   out,
	})
}

// handleGetFrame handles GET /v1/frames/{pane}. The ETag is the frame id.
func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	pane := render.Pane(chi.URLParam(r, "pane"))
	if pane != render.PaneTopology && pane != render.PaneStats {
		writeError(w, http.StatusNotFound, "unknown pane "+string(pane))
		return
	}
	f := s.Latest(pane)
	if f == nil {
		writeError(w, http.StatusNotFound, "no "+string(pane)+" frame rendered yet")
		return
	}

	etag := `"` + f.ID + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", f.Format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
