package api

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/andipetruzz/modalrecomendacoes/internal/adapters/shopify"
	"github.com/andipetruzz/modalrecomendacoes/internal/domain/catalog"
)

// AdminHandler serves the curation UI: catalog editing, quiz seeding,
// product search and the stats dashboards, all behind one password.
type AdminHandler struct {
	deps         Dependencies
	origins      *originSet
	pass         string
	defaultStore string
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps Dependencies, origins *originSet, pass, defaultStore string) *AdminHandler {
	return &AdminHandler{deps: deps, origins: origins, pass: pass, defaultStore: defaultStore}
}

// saveRequest is the body for save and quiz_save.
type saveRequest struct {
	Category string         `json:"category"`
	Product  productPayload `json:"product"`
}

// productPayload mirrors the admin UI's product shape, which uses
// "title" where the widget payload uses "name".
type productPayload struct {
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	Image     string `json:"image"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	VariantID string `json:"variantId"`
}

func (p productPayload) toRef() catalog.ProductRef {
	return catalog.ProductRef{
		Name:      p.Title,
		Handle:    p.Handle,
		Image:     p.Image,
		Price:     p.Price,
		Currency:  p.Currency,
		VariantID: p.VariantID,
	}
}

// reorderRequest is the body for reorder and quiz_reorder.
type reorderRequest struct {
	Category string   `json:"category"`
	Order    []string `json:"order"`
}

// categoriesResponse lists the valid category names for a store.
type categoriesResponse struct {
	Categories     []string `json:"categories"`
	QuizCategories []string `json:"quizCategories"`
}

// searchProduct is the admin-facing product search row.
type searchProduct struct {
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	Image     string `json:"image,omitempty"`
	Price     string `json:"price,omitempty"`
	Currency  string `json:"currency,omitempty"`
	VariantID string `json:"variantId,omitempty"`
}

type searchResponse struct {
	Products   []searchProduct `json:"products"`
	NextCursor string          `json:"nextCursor,omitempty"`
	HasNext    bool            `json:"hasNext"`
}

func toSearchResponse(page shopify.SearchPage) searchResponse {
	resp := searchResponse{
		Products:   make([]searchProduct, 0, len(page.Products)),
		NextCursor: page.NextCursor,
		HasNext:    page.HasNext,
	}
	for _, p := range page.Products {
		resp.Products = append(resp.Products, searchProduct{
			Title:     p.Title,
			Handle:    p.Handle,
			Image:     p.ImageURL,
			Price:     p.Price,
			Currency:  p.Currency,
			VariantID: p.VariantID,
		})
	}
	return resp
}

// HandleAdmin handles /api/admin?action=... requests.
func (h *AdminHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	if h.origins.apply(w, r, "GET, POST, DELETE, OPTIONS") {
		return
	}
	if h.origins.rejectCrossOrigin(w, r) {
		return
	}
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="curation"`)
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	store := r.URL.Query().Get("store")
	if store == "" {
		store = h.defaultStore
	}
	if _, err := h.deps.ResolveStore(store); err != nil {
		writeDomainError(w, err)
		return
	}

	switch action := r.URL.Query().Get("action"); action {
	case "categories":
		h.handleCategories(w, r, store)
	case "products":
		h.handleSearch(w, r)
	case "recommendations":
		h.handleList(w, r, store, h.deps.ListCatalog)
	case "save":
		h.handleSave(w, r, store, h.deps.AddProduct)
	case "remove":
		h.handleRemove(w, r, store, h.deps.RemoveProduct)
	case "reorder":
		h.handleReorder(w, r, store, h.deps.ReorderCategory)
	case "stats":
		h.handleStats(w, r, store)
	case "quiz":
		h.handleList(w, r, store, h.deps.ListQuiz)
	case "quiz_save":
		h.handleSave(w, r, store, h.deps.AddQuizProduct)
	case "quiz_remove":
		h.handleRemove(w, r, store, h.deps.RemoveQuizProduct)
	case "quiz_reorder":
		h.handleReorder(w, r, store, h.deps.ReorderQuizCategory)
	case "quiz_seed":
		h.handleSeed(w, r, store)
	case "quiz_stats":
		h.handleQuizStats(w, r, store)
	default:
		writeError(w, http.StatusBadRequest, "unknown_action", ErrBadRequest)
	}
}

// authorized checks the shared admin password. Both bare-password and
// conventional user:password basic credentials are accepted because the
// curation UI sends the former while curl sends the latter.
func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.pass == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	scheme, encoded, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}
	cred := string(decoded)
	if _, pass, ok := strings.Cut(cred, ":"); ok {
		cred = pass
	}
	return subtle.ConstantTimeCompare([]byte(cred), []byte(h.pass)) == 1
}

func (h *AdminHandler) handleCategories(w http.ResponseWriter, r *http.Request, store string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	st, err := h.deps.ResolveStore(store)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{
		Categories:     st.Categories,
		QuizCategories: st.QuizCategories,
	})
}

func (h *AdminHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", ErrBadRequest)
		return
	}
	page, err := h.deps.SearchProducts(r.Context(), query, r.URL.Query().Get("cursor"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSearchResponse(page))
}

func (h *AdminHandler) handleList(w http.ResponseWriter, r *http.Request, store string,
	list func(ctx context.Context, storeID string) (catalog.Catalog, error),
) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	cat, err := list(r.Context(), store)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *AdminHandler) handleSave(w http.ResponseWriter, r *http.Request, store string,
	add func(ctx context.Context, storeID, category string, p catalog.ProductRef) (catalog.Catalog, error),
) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", ErrBadRequest)
		return
	}
	if req.Category == "" || req.Product.Handle == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", ErrBadRequest)
		return
	}
	cat, err := add(r.Context(), store, req.Category, req.Product.toRef())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *AdminHandler) handleRemove(w http.ResponseWriter, r *http.Request, store string,
	remove func(ctx context.Context, storeID, category, handle string) (catalog.Catalog, error),
) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	category := r.URL.Query().Get("category")
	handle := r.URL.Query().Get("handle")
	if category == "" || handle == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", ErrBadRequest)
		return
	}
	cat, err := remove(r.Context(), store, category, handle)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *AdminHandler) handleReorder(w http.ResponseWriter, r *http.Request, store string,
	reorder func(ctx context.Context, storeID, category string, order []string) (catalog.Catalog, error),
) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", ErrBadRequest)
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", ErrBadRequest)
		return
	}
	cat, err := reorder(r.Context(), store, req.Category, req.Order)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cat)
}

func (h *AdminHandler) handleSeed(w http.ResponseWriter, r *http.Request, store string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	var table catalog.CurationTable
	if err := json.NewDecoder(r.Body).Decode(&table); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", ErrBadRequest)
		return
	}
	if len(table) == 0 {
		writeError(w, http.StatusBadRequest, "empty_table", ErrBadRequest)
		return
	}
	res, err := h.deps.SeedQuiz(r.Context(), store, table)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) handleStats(w http.ResponseWriter, r *http.Request, store string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	stats, err := h.deps.ReadStats(r.Context(), store)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) handleQuizStats(w http.ResponseWriter, r *http.Request, store string) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}
	stats, err := h.deps.ReadQuizStats(r.Context(), store)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
