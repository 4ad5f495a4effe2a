// Package handlers is the HTTP boundary over the transit store. It
// consumes the read surface only; all ingestion state lives behind
// the store and refresh engine.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"nvt.dev/transit"
)

const defaultArrivalLimit = 10

// Refresher triggers an immediate refresh cycle.
type Refresher interface {
	SmartRefresh(ctx context.Context)
}

// Handler handles HTTP requests.
type Handler struct {
	store     *transit.Store
	refresher Refresher
}

// NewHandler creates a new HTTP handler.
func NewHandler(store *transit.Store, refresher Refresher) *Handler {
	return &Handler{store: store, refresher: refresher}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/network", h.handleNetwork).Methods("GET")
	r.HandleFunc("/stops", h.handleStops).Methods("GET")
	r.HandleFunc("/lines", h.handleLines).Methods("GET")
	r.HandleFunc("/vehicles", h.handleVehicles).Methods("GET")
	r.HandleFunc("/alerts", h.handleAlerts).Methods("GET")
	r.HandleFunc("/stop/{id}", h.handleStop).Methods("GET")
	r.HandleFunc("/stop/{id}/arrivals", h.handleStopArrivals).Methods("GET")
	r.HandleFunc("/line/{code}", h.handleLine).Methods("GET")
	r.HandleFunc("/operator/{name}", h.handleOperator).Methods("GET")
	r.HandleFunc("/operators", h.handleOperators).Methods("GET")
	r.HandleFunc("/stats", h.handleStats).Methods("GET")
	r.HandleFunc("/refresh", h.handleRefresh).Methods("POST")
	r.HandleFunc("/health", h.handleHealth).Methods("GET")
}

// Response wraps every API payload.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
	Sources   []string    `json:"sources"`
}

func (h *Handler) handleNetwork(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.store.NetworkData())
}

func (h *Handler) handleStops(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.store.Stops())
}

func (h *Handler) handleLines(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.store.Lines())
}

func (h *Handler) handleVehicles(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.store.Vehicles())
}

func (h *Handler) handleAlerts(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.store.Alerts())
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	stop, ok := h.store.StopByID(id)
	if !ok {
		h.writeError(w, "stop not found", http.StatusNotFound)
		return
	}
	h.writeData(w, stop)
}

func (h *Handler) handleStopArrivals(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	limit := defaultArrivalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	h.writeData(w, h.store.StopArrivals(id, limit))
}

func (h *Handler) handleLine(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	line, ok := h.store.LineByCode(code)
	if !ok {
		h.writeError(w, "line not found", http.StatusNotFound)
		return
	}
	h.writeData(w, line)
}

func (h *Handler) handleOperator(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	lines := h.store.LinesByOperator(name)
	if len(lines) == 0 {
		h.writeError(w, "operator not found", http.StatusNotFound)
		return
	}
	h.writeData(w, lines)
}

func (h *Handler) handleOperators(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.store.Operators())
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, h.store.Stats())
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.refresher.SmartRefresh(r.Context())
	h.writeData(w, map[string]string{"status": "refreshed"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeData(w, map[string]string{"status": "ok"})
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Sources:   sources(),
	})
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, Response{
		Success:   false,
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Sources:   sources(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func sources() []string {
	return []string{transit.SourceUrban, transit.SourceRegional, transit.SourceRail}
}
