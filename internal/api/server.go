// Package api serves stored analysis runs as JSON alongside the rendered
// chart files.
package api

import (
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/chartlab/internal/db"
	"github.com/banshee-data/chartlab/internal/httputil"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db        *db.DB
	chartsDir string
}

// NewServer serves runs from database and static files from chartsDir.
// An empty chartsDir disables the /charts/ route.
func NewServer(database *db.DB, chartsDir string) *Server {
	return &Server{db: database, chartsDir: chartsDir}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
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
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.listRuns)
	mux.HandleFunc("/api/runs/", s.runDetail)
	if s.chartsDir != "" {
		mux.Handle("/charts/", http.StripPrefix("/charts/", http.FileServer(http.Dir(s.chartsDir))))
	}
	return mux
}

// RunAPI is the JSON shape of a stored run.
type RunAPI struct {
	ID         string     `json:"run_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Rows       int        `json:"row_count"`
	SourcePath string     `json:"source_path"`
}

// TestAPI is one ANOVA result; undefined statistics are null.
type TestAPI struct {
	Feature     string   `json:"feature"`
	F           *float64 `json:"f_statistic"`
	P           *float64 `json:"p_value"`
	Significant bool     `json:"significant"`
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	runs, err := s.db.Runs()
	if err != nil {
		httputil.InternalServerError(w, "Failed to retrieve runs: "+err.Error())
		return
	}
	out := make([]RunAPI, len(runs))
	for i, run := range runs {
		out[i] = RunAPI{
			ID:         run.ID,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			Rows:       run.Rows,
			SourcePath: run.SourcePath,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// runDetail serves /api/runs/{id}/anova and /api/runs/{id}/clusters.
func (s *Server) runDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	id, view, ok := strings.Cut(strings.TrimPrefix(r.URL.Path, "/api/runs/"), "/")
	if !ok || id == "" {
		httputil.NotFound(w, "expected /api/runs/{id}/anova or /api/runs/{id}/clusters")
		return
	}

	switch view {
	case "anova":
		tests, err := s.db.ANOVAResults(id)
		if err != nil {
			httputil.InternalServerError(w, "Failed to retrieve ANOVA results: "+err.Error())
			return
		}
		if len(tests) == 0 {
			httputil.NotFound(w, "no ANOVA results for run "+id)
			return
		}
		out := make([]TestAPI, len(tests))
		for i, t := range tests {
			out[i] = TestAPI{Feature: t.Feature, F: optional(t.F), P: optional(t.P), Significant: t.Significant}
		}
		httputil.WriteJSON(w, http.StatusOK, out)

	case "clusters":
		clusters, err := s.db.RegionClusters(id)
		if err != nil {
			httputil.InternalServerError(w, "Failed to retrieve clusters: "+err.Error())
			return
		}
		if len(clusters) == 0 {
			httputil.NotFound(w, "no clusters for run "+id)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, clusters)

	default:
		httputil.NotFound(w, "unknown run view "+view)
	}
}
