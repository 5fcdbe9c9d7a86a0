// telemetry_server.go - HTTP endpoint for stats and program management

/*
Pressense - polyphonic wavetable MIDI synthesizer

(c) 2025 - 2026 Jonathan Fuerth
https://github.com/jfuerth/pressense
License: GPLv3 or later
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TelemetryServer exposes engine statistics and program management over
// HTTP. It also implements TelemetrySink, retaining the latest stats so
// polling clients see the numbers the audio loop last published.
type TelemetryServer struct {
	engine *SynthEngine
	router *chi.Mux
	server *http.Server

	mu        sync.Mutex
	lastAudio AudioStats
	lastKeys  KeyScanStats
}

func NewTelemetryServer(engine *SynthEngine) *TelemetryServer {
	s := &TelemetryServer{
		engine: engine,
		router: chi.NewRouter(),
	}

	s.router.Use(middleware.Recoverer)

	s.router.Get("/api/stats", s.handleAudioStats)
	s.router.Get("/api/keys", s.handleKeyStats)
	s.router.Get("/api/program", s.handleGetProgram)
	s.router.Put("/api/program", s.handlePutProgram)
	s.router.Post("/api/program/{num}/save", s.handleSaveProgram)

	return s
}

// SendAudioStats retains the latest audio stats (TelemetrySink)
func (s *TelemetryServer) SendAudioStats(stats AudioStats) {
	s.mu.Lock()
	s.lastAudio = stats
	s.mu.Unlock()
}

// SendKeyScanStats retains the latest key scan stats (TelemetrySink)
func (s *TelemetryServer) SendKeyScanStats(stats KeyScanStats) {
	s.mu.Lock()
	s.lastKeys = stats
	s.mu.Unlock()
}

// Start serves in a background goroutine until Shutdown
func (s *TelemetryServer) Start(addr string) {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("telemetry server listening", "addr", addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("telemetry server failed", "err", err)
		}
	}()
}

func (s *TelemetryServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler, for tests
func (s *TelemetryServer) Handler() http.Handler {
	return s.router
}

func (s *TelemetryServer) handleAudioStats(w http.ResponseWriter, r *http.Request) {
	// Live stats from the engine are authoritative; the retained copy is
	// only interesting for its publish cadence.
	writeJSON(w, s.engine.Stats())
}

func (s *TelemetryServer) handleKeyStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.lastKeys
	s.mu.Unlock()
	if stats.Type == "" {
		stats.Type = "keys"
	}
	writeJSON(w, stats)
}

func (s *TelemetryServer) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.CaptureProgram())
}

func (s *TelemetryServer) handlePutProgram(w http.ResponseWriter, r *http.Request) {
	program := DefaultProgramData()
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		http.Error(w, "invalid program data: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.engine.ApplyProgram(program)
	writeJSON(w, program)
}

func (s *TelemetryServer) handleSaveProgram(w http.ResponseWriter, r *http.Request) {
	num, err := strconv.Atoi(chi.URLParam(r, "num"))
	if err != nil || num < 0 || num > 127 {
		http.Error(w, "program number must be 0-127", http.StatusBadRequest)
		return
	}
	if uint8(num) == FACTORY_PROGRAM {
		http.Error(w, "factory program is protected", http.StatusForbidden)
		return
	}
	if err := s.engine.SaveProgram(uint8(num)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "err", err)
	}
}
