// Package api provides the HTTP REST API server for marketscan.
//
// It exposes endpoints for market scans, per-instrument analysis, quotes,
// price history, headlines and WebSocket progress streaming.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bkaradeniz/marketscan/internal/analyzer"
	"github.com/bkaradeniz/marketscan/internal/config"
	"github.com/bkaradeniz/marketscan/internal/report"
	"github.com/bkaradeniz/marketscan/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	engine *analyzer.Engine
	events *EventHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) *Server {
	srv := &Server{
		cfg:    cfg,
		engine: analyzer.NewEngine().WithMetricsTTL(time.Duration(cfg.Analysis.MetricsCacheTTL) * time.Second),
		events: NewEventHub(),
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.events.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Scan
		r.Post("/scan", s.handleScan)

		// Per-instrument analysis
		r.Get("/stock/{ticker}", s.handleStock)
		r.Get("/report/{ticker}", s.handleReport)

		// Raw market data
		r.Get("/quote/{ticker}", s.handleQuote)
		r.Get("/history/{ticker}", s.handleHistory)
		r.Get("/news/{ticker}", s.handleNews)

		// Index constituents
		r.Get("/universe", s.handleUniverse)

		// WebSocket progress stream
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ScanRequest is the body for POST /api/v1/scan.
type ScanRequest struct {
	Exchange string   `json:"exchange,omitempty"`
	Signals  []string `json:"signals,omitempty"`
	Pages    int      `json:"pages,omitempty"`
	Sector   string   `json:"sector,omitempty"`
	MaxPE    float64  `json:"max_pe,omitempty"`
	MinPrice float64  `json:"min_price,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
			"time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pages := req.Pages
	if pages <= 0 {
		pages = s.cfg.Scan.Pages
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	res, err := s.engine.Scan(ctx, analyzer.ScanRequest{
		Exchange: firstNonEmpty(req.Exchange, s.cfg.Scan.Exchange),
		Signals:  req.Signals,
		Pages:    pages,
		Sector:   req.Sector,
		MaxPE:    req.MaxPE,
		MinPrice: req.MinPrice,
		Delay:    time.Duration(s.cfg.Scan.DelayMs) * time.Millisecond,
		Progress: func(done, total int) {
			s.events.Publish(ScanEvent{
				Kind:       EventScanProgress,
				PagesDone:  done,
				PagesTotal: total,
			})
		},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.events.Publish(ScanEvent{
		Kind:        EventScanComplete,
		Instruments: len(res.Instruments),
		Truncated:   res.Truncated,
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    res,
	})
}

func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	window := r.URL.Query().Get("window")
	if window == "" {
		window = s.cfg.Analysis.HistoryWindow
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	res, err := s.engine.Detail(ctx, ticker, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    res,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	window := r.URL.Query().Get("window")
	if window == "" {
		window = s.cfg.Analysis.HistoryWindow
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()

	res, err := s.engine.Detail(ctx, ticker, window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	html, err := report.GenerateHTML(res)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(html)); err != nil {
		log.Printf("failed to write report response: %v", err)
	}
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.engine.Yahoo().GetQuote(ctx, ticker)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    quote,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	window := r.URL.Query().Get("window")
	to := time.Now()
	from, err := utils.ParseWindow(window, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	candles, err := s.engine.Yahoo().GetHistory(ctx, ticker, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    candles,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	headlines, err := s.engine.News().GetHeadlines(ctx, ticker, s.cfg.Analysis.NewsLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    headlines,
	})
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	constituents, err := s.engine.Universe(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    constituents,
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ============================================================
// Scan event hub
// ============================================================

// EventKind names a scan lifecycle notification.
type EventKind string

const (
	EventScanProgress EventKind = "scan_progress"
	EventScanComplete EventKind = "scan_complete"
	EventSubscribed   EventKind = "subscribed"
	EventPong         EventKind = "pong"
)

// ScanEvent is the wire format pushed to WebSocket clients. Progress fields
// are set while a scan runs, result fields when it finishes, and Ticker
// echoes subscription acknowledgements.
type ScanEvent struct {
	Kind        EventKind `json:"type"`
	PagesDone   int       `json:"pages_done,omitempty"`
	PagesTotal  int       `json:"pages_total,omitempty"`
	Instruments int       `json:"instruments,omitempty"`
	Truncated   bool      `json:"truncated,omitempty"`
	Ticker      string    `json:"ticker,omitempty"`
}

// EventHub fans scan events out to the connected WebSocket clients.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*eventClient]struct{}
	events  chan ScanEvent
}

type eventClient struct {
	hub  *EventHub
	send chan ScanEvent
}

// NewEventHub creates an empty hub. Call Run before publishing.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*eventClient]struct{}),
		events:  make(chan ScanEvent, 256),
	}
}

// Run delivers published events for the life of the process. A client that
// cannot keep up is dropped instead of stalling the fan-out.
func (h *EventHub) Run() {
	for ev := range h.events {
		h.mu.Lock()
		for c := range h.clients {
			select {
			case c.send <- ev:
			default:
				delete(h.clients, c)
				close(c.send)
			}
		}
		h.mu.Unlock()
	}
}

// Publish queues an event for broadcast. When the queue is full the event is
// dropped: progress updates are advisory, the scan result travels over HTTP.
func (h *EventHub) Publish(ev ScanEvent) {
	select {
	case h.events <- ev:
	default:
	}
}

func (h *EventHub) register(c *eventClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ClientCount reports the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
