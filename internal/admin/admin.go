// Package admin provides the operational HTTP surface: health and debug
// endpoints served by ordinary net/http + chi, deliberately outside the
// event-loop request pipeline so it stays reachable while the main
// listener is saturated.
package admin

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ashureev/mailcore/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoopStats is what the admin surface reads from the event loop. The loop
// itself owns the connection table and heap; these accessors only read
// counters.
type LoopStats interface {
	ConnectionCount() int
	HeapSize() int
	PoolQueueDepth() int
	PoolThreadCount() int
}

// Handler serves the admin endpoints.
type Handler struct {
	repo  store.Repository
	stats LoopStats
}

// NewHandler creates a Handler over the backend and loop stats.
func NewHandler(repo store.Repository, stats LoopStats) *Handler {
	return &Handler{repo: repo, stats: stats}
}

// NewServer wires a Handler into a chi router and returns the http.Server
// listening on addr.
func NewServer(addr string, repo store.Repository, stats LoopStats) *http.Server {
	h := NewHandler(repo, stats)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	h.RegisterRoutes(r)

	return &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// RegisterRoutes registers the admin routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/debug/pool", h.Pool)
	r.Get("/debug/connections", h.Connections)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Health reports backend reachability plus coarse load numbers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.repo.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, map[string]interface{}{
		"status":      status,
		"connections": h.stats.ConnectionCount(),
		"queue_depth": h.stats.PoolQueueDepth(),
		"pool_size":   h.stats.PoolThreadCount(),
	})
}

// Pool reports worker pool saturation.
func (h *Handler) Pool(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"queue_depth": h.stats.PoolQueueDepth(),
		"pool_size":   h.stats.PoolThreadCount(),
	})
}

// Connections reports the live connection population.
func (h *Handler) Connections(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"connections": h.stats.ConnectionCount(),
		"heap_size":   h.stats.HeapSize(),
	})
}
