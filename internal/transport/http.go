package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewServer creates the process router: the MCP endpoint, a health probe and
// optionally Prometheus metrics. authMiddleware guards /mcp only.
func NewServer(mcpHandler http.Handler, metrics http.Handler, authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Handle("/mcp", mcpHandler)
		r.Handle("/mcp/*", mcpHandler)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
