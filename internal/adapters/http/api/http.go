// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/kv"
	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/shopify"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/catalog"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/tracking"
	"github.com/andipetruzz/modalrecomendacoes/internal/registry"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Store resolution for request routing.
	Stores() []registry.Store
	ResolveStore(id string) (registry.Store, error)

	// Main catalog operations.
	ListCatalog(ctx context.Context, storeID string) (catalog.Catalog, error)
	AddProduct(ctx context.Context, storeID, category string, p catalog.ProductRef) (catalog.Catalog, error)
	RemoveProduct(ctx context.Context, storeID, category, handle string) (catalog.Catalog, error)
	ReorderCategory(ctx context.Context, storeID, category string, order []string) (catalog.Catalog, error)

	// Quiz catalog operations.
	ListQuiz(ctx context.Context, storeID string) (catalog.Catalog, error)
	AddQuizProduct(ctx context.Context, storeID, category string, p catalog.ProductRef) (catalog.Catalog, error)
	RemoveQuizProduct(ctx context.Context, storeID, category, handle string) (catalog.Catalog, error)
	ReorderQuizCategory(ctx context.Context, storeID, category string, order []string) (catalog.Catalog, error)
	SeedQuiz(ctx context.Context, storeID string, table catalog.CurationTable) (catalog.SeedResult, error)

	// Engagement tracking and reporting.
	Record(ctx context.Context, storeID, event, handle, title string) error
	ReadStats(ctx context.Context, storeID string) (tracking.Stats, error)
	ReadQuizStats(ctx context.Context, storeID string) (tracking.QuizStats, error)

	// Allow reports whether the caller at addr is inside its request budget.
	Allow(ctx context.Context, addr string) (bool, error)

	// SearchProducts backs the admin UI product picker.
	SearchProducts(ctx context.Context, query, cursor string) (shopify.SearchPage, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	productsHandler *ProductsHandler
	quizHandler     *QuizHandler
	trackHandler    *TrackHandler
	adminHandler    *AdminHandler
	healthHandler   *HealthHandler
}

// Config carries the request-gating knobs the handlers need.
type Config struct {
	// AdminPass is the shared password for /api/admin. Empty disables
	// the admin surface entirely.
	AdminPass string

	// AllowedOrigins is the exact-match CORS allowlist. Any
	// *.myshopify.com origin is additionally accepted for previews.
	AllowedOrigins []string

	// DefaultStore is used when a public read omits the store parameter
	// or names a store that does not exist.
	DefaultStore string
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, cfg Config) *Server {
	origins := newOriginSet(cfg.AllowedOrigins)
	return &Server{
		productsHandler: NewProductsHandler(deps, origins, cfg.DefaultStore),
		quizHandler:     NewQuizHandler(deps, origins, cfg.DefaultStore),
		trackHandler:    NewTrackHandler(deps, origins, cfg.DefaultStore),
		adminHandler:    NewAdminHandler(deps, origins, cfg.AdminPass, cfg.DefaultStore),
		healthHandler:   NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/api/products", MetricsMiddleware(s.productsHandler.HandleGetProducts, "products"))
	mux.HandleFunc("/api/quiz", MetricsMiddleware(s.quizHandler.HandleGetQuiz, "quiz"))
	mux.HandleFunc("/api/track", MetricsMiddleware(s.trackHandler.HandlePostTrack, "track"))
	mux.HandleFunc("/api/admin", MetricsMiddleware(s.adminHandler.HandleAdmin, "admin"))
}

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps domain sentinels onto HTTP statuses so handlers
// do not repeat the same errors.Is ladder.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrUnknownStore):
		writeError(w, http.StatusBadRequest, "unknown_store", err)
	case errors.Is(err, catalog.ErrInvalidCategory):
		writeError(w, http.StatusBadRequest, "invalid_category", err)
	case errors.Is(err, tracking.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, "invalid_event", err)
	case errors.Is(err, shopify.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, shopify.ErrUpstream):
		writeError(w, http.StatusBadGateway, "upstream_error", err)
	case errors.Is(err, kv.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", errors.New("internal error"))
	}
}

// clientAddr extracts the originating client address, preferring the
// first X-Forwarded-For hop set by the edge proxy.
func clientAddr(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		if addr := strings.TrimSpace(fwd); addr != "" {
			return addr
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// storeParam picks the store id from the query string, falling back to
// the configured default so cached widget reads never 404 on a stale id.
func storeParam(r *http.Request, deps Dependencies, fallback string) string {
	id := r.URL.Query().Get("store")
	if id == "" {
		return fallback
	}
	if _, err := deps.ResolveStore(id); err != nil {
		return fallback
	}
	return id
}
