package api

import (
	"encoding/json"
	"net/http"

	"github.com/andipetruzz/modalrecomendacoes/pkg/logger"
	"github.com/andipetruzz/modalrecomendacoes/pkg/metrics"
)

// trackRequest is the beacon payload sent by the storefront widgets.
type trackRequest struct {
	Event  string `json:"event"`
	Handle string `json:"handle"`
	Title  string `json:"title"`
	Store  string `json:"store"`
}

// TrackHandler ingests engagement beacons from the storefront.
type TrackHandler struct {
	deps         Dependencies
	origins      *originSet
	defaultStore string
	log          logger.Logger
}

// NewTrackHandler creates a new tracking handler.
func NewTrackHandler(deps Dependencies, origins *originSet, defaultStore string) *TrackHandler {
	return &TrackHandler{
		deps:         deps,
		origins:      origins,
		defaultStore: defaultStore,
		log:          logger.Named("track"),
	}
}

// HandlePostTrack handles POST /api/track requests. Beacons are
// best-effort: once the origin and method checks pass, the response is
// {"ok":true} no matter what happens downstream, so a storage hiccup
// never surfaces as an error in the shopper's console.
func (h *TrackHandler) HandlePostTrack(w http.ResponseWriter, r *http.Request) {
	if h.origins.apply(w, r, "POST, OPTIONS") {
		return
	}
	if !h.origins.allowed(r.Header.Get("Origin")) {
		writeError(w, http.StatusForbidden, "origin_forbidden", ErrForbidden)
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}

	addr := clientAddr(r)
	ok, err := h.deps.Allow(r.Context(), addr)
	if err != nil {
		// Fail open: a limiter outage must not take tracking down.
		h.log.Warn(r.Context(), "rate limiter unavailable", logger.Error(err))
	} else if !ok {
		writeError(w, http.StatusTooManyRequests, "rate_limited", ErrBadRequest)
		return
	}

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.RecordEventInvalid()
		writeJSON(w, http.StatusOK, okResponse{OK: true})
		return
	}

	store := req.Store
	if store == "" {
		store = h.defaultStore
	}
	if err := h.deps.Record(r.Context(), store, req.Event, req.Handle, req.Title); err != nil {
		h.log.Warn(r.Context(), "event dropped",
			logger.String("event", req.Event),
			logger.String("store", store),
			logger.Error(err))
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
