// Package controlplane serves liveness, health and informational endpoints.
package controlplane

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/codec"
)

// TimestampLayout renders local wall time without a zone, e.g. 2025-08-19T09:25:30.135.
const TimestampLayout = "2006-01-02T15:04:05.000"

// Component states reported by /health.
const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

const healthTimeout = 3 * time.Second

// Info describes the running application.
type Info struct {
	Application string
	Version     string
}

// Checker reports whether a dependency answers.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// HTTPChecker considers a dependency up when any HTTP answer comes back.
func HTTPChecker(client *http.Client, url string) Checker {
	return CheckerFunc(func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	})
}

type Server struct {
	router    *chi.Mux
	info      Info
	backend   Checker
	logger    *slog.Logger
	startTime time.Time
	now       func() time.Time
}

func NewServer(info Info, backend Checker, logger *slog.Logger) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		info:      info,
		backend:   backend,
		logger:    logger,
		startTime: time.Now(),
		now:       time.Now,
	}
	s.Mount(s.router)
	return s
}

// Mount registers the control-plane routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/api/alive", s.handleAlive)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/welcome", s.handleWelcome)
	r.Get("/api/info", s.handleInfo)
	r.Post("/api/echo", s.handleEcho)
	r.Get("/api/stats", s.handleStats)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type AliveResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Application string `json:"application"`
	Version     string `json:"version"`
}

func (s *Server) handleAlive(w http.ResponseWriter, r *http.Request) {
	codec.WriteJSON(w, http.StatusOK, AliveResponse{
		Status:      "alive",
		Timestamp:   s.now().Format(TimestampLayout),
		Application: s.info.Application,
		Version:     s.info.Version,
	})
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components"`
}

// handleHealth always answers 200; a failing backend only marks its component DOWN.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{"application": StatusUp}

	if s.backend != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		components["backend"] = StatusUp
		if err := s.backend.Check(ctx); err != nil {
			s.logger.Warn("backend health check failed", slog.String("error", err.Error()))
			components["backend"] = StatusDown
		}
	}

	codec.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:     StatusUp,
		Timestamp:  s.now().Format(TimestampLayout),
		Components: components,
	})
}

func (s *Server) handleWelcome(w http.ResponseWriter, r *http.Request) {
	codec.WriteJSON(w, http.StatusOK, map[string]string{
		"message":     "Welcome to " + s.info.Application,
		"description": "Integration gateway for JSON/REST and SOAP/XML backends",
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	codec.WriteJSON(w, http.StatusOK, map[string]string{
		"application": s.info.Application,
		"version":     s.info.Version,
		"go":          runtime.Version(),
	})
}

type EchoResponse struct {
	Received map[string]any `json:"received"`
	Message  string         `json:"message"`
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		codec.WriteJSON(w, http.StatusBadRequest, codec.ErrorPayload{
			Status:    codec.StatusError,
			Message:   "Invalid JSON body: " + err.Error(),
			Timestamp: s.now().UnixMilli(),
		})
		return
	}
	codec.WriteJSON(w, http.StatusOK, EchoResponse{
		Received: payload,
		Message:  "Echo successful",
	})
}

type StatsResponse struct {
	Uptime       string      `json:"uptime"`
	GoVersion    string      `json:"go_version"`
	NumGoroutine int         `json:"num_goroutine"`
	Memory       MemoryStats `json:"memory"`
}

type MemoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"total_alloc"`
	Sys        uint64 `json:"sys"`
	NumGC      uint32 `json:"num_gc"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	codec.WriteJSON(w, http.StatusOK, StatsResponse{
		Uptime:       time.Since(s.startTime).String(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		Memory: MemoryStats{
			Alloc:      m.Alloc,
			TotalAlloc: m.TotalAlloc,
			Sys:        m.Sys,
			NumGC:      m.NumGC,
		},
	})
}
