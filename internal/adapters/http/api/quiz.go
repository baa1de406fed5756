package api

import (
	"net/http"
)

// quizCacheControl is shorter than the products policy: quiz curation
// changes more often while the results page is being tuned.
const quizCacheControl = "public, max-age=3600, stale-while-revalidate=86400"

// QuizHandler serves the personality-quiz results payload.
type QuizHandler struct {
	deps         Dependencies
	origins      *originSet
	defaultStore string
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(deps Dependencies, origins *originSet, defaultStore string) *QuizHandler {
	return &QuizHandler{deps: deps, origins: origins, defaultStore: defaultStore}
}

// HandleGetQuiz handles GET /api/quiz?store=S requests.
func (h *QuizHandler) HandleGetQuiz(w http.ResponseWriter, r *http.Request) {
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
	cat, err := h.deps.ListQuiz(r.Context(), store)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Cache-Control", quizCacheControl)
	writeJSON(w, http.StatusOK, cat)
}
