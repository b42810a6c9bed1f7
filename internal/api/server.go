// Package api exposes the triage service over HTTP.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/calyx-health/triage.report/internal/auth"
	"github.com/calyx-health/triage.report/internal/config"
	"github.com/calyx-health/triage.report/internal/db"
	"github.com/calyx-health/triage.report/internal/engine"
	"github.com/calyx-health/triage.report/internal/httputil"
	"github.com/calyx-health/triage.report/internal/monitoring"
)

// ANSI escape codes for request log coloring
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db     *db.DB
	engine *engine.Engine
	cfg    *config.ServiceConfig
}

func NewServer(database *db.DB, eng *engine.Engine, cfg *config.ServiceConfig) *Server {
	if cfg == nil {
		cfg = config.EmptyServiceConfig()
	}
	return &Server{
		db:     database,
		engine: eng,
		cfg:    cfg,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)

	mux.HandleFunc("/auth/signup", s.handleSignup)
	mux.HandleFunc("/auth/login", s.handleLogin)
	mux.HandleFunc("/auth/me", auth.RequireUser(s.db, s.handleMe))

	mux.HandleFunc("/api/predict", s.handlePredict)
	mux.HandleFunc("/api/symptoms", s.handleSymptoms)

	mux.HandleFunc("/api/timeline", auth.RequireUser(s.db, s.handleTimeline))
	mux.HandleFunc("/api/timeline/", auth.RequireUser(s.db, s.handleTimelineEntry))
	mux.HandleFunc("/api/timeline/report", auth.RequireUser(s.db, s.handleTimelineReport))

	mux.HandleFunc("/api/privacy/summary", auth.RequireUser(s.db, s.handlePrivacySummary))
	mux.HandleFunc("/api/privacy/timeline", auth.RequireUser(s.db, s.handlePrivacyClear))

	return mux
}

// Handler returns the full middleware-wrapped handler for the service.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.ServeMux())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}
