package api

import (
	"net/http"
	"strings"
)

// originSet decides which browser origins may call the public surfaces.
// Exact-match entries come from configuration; any *.myshopify.com origin
// is accepted so theme previews keep working without a config change.
type originSet struct {
	exact map[string]struct{}
}

func newOriginSet(origins []string) *originSet {
	s := &originSet{exact: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" {
			s.exact[o] = struct{}{}
		}
	}
	return s
}

func (s *originSet) allowed(origin string) bool {
	if origin == "" {
		return false
	}
	origin = strings.TrimRight(origin, "/")
	if _, ok := s.exact[origin]; ok {
		return true
	}
	host, ok := strings.CutPrefix(origin, "https://")
	if !ok {
		return false
	}
	return strings.HasSuffix(host, ".myshopify.com") && !strings.Contains(host, "/")
}

// apply sets CORS response headers for an allowed origin and answers
// preflight requests. It returns true when the request was a preflight
// and has been fully handled.
func (s *originSet) apply(w http.ResponseWriter, r *http.Request, methods string) bool {
	origin := r.Header.Get("Origin")
	if s.allowed(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

// rejectCrossOrigin blocks requests carrying a disallowed Origin header.
// Requests without an Origin (server-to-server, curl) pass through.
func (s *originSet) rejectCrossOrigin(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.allowed(origin) {
		return false
	}
	writeError(w, http.StatusForbidden, "origin_forbidden", ErrForbidden)
	return true
}
