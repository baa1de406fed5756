package api

import (
	"net/http"
)

// productsCacheControl lets the CDN hold the widget payload for a day;
// the admin UI busts it with a query-string version on save.
const productsCacheControl = "public, max-age=86400, stale-while-revalidate=604800"

// ProductsHandler serves the recommended-products widget payload.
type ProductsHandler struct {
	deps         Dependencies
	origins      *originSet
	defaultStore string
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(deps Dependencies, origins *originSet, defaultStore string) *ProductsHandler {
	return &ProductsHandler{deps: deps, origins: origins, defaultStore: defaultStore}
}

// HandleGetProducts handles GET /api/products?store=S requests.
func (h *ProductsHandler) HandleGetProducts(w http.ResponseWriter, r *http.Request) {
	if h.origins.apply(w, r, "GET, OPTIONS") {
		return
	}
	if h.origins.rejectCrossOrigin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrBadRequest)
		return
	}

	store := storeParam(r, h.deps, h.defaultStore)
	cat, err := h.deps.ListCatalog(r.Context(), store)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Cache-Control", productsCacheControl)
	writeJSON(w, http.StatusOK, cat)
}
