package quietblock

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns quiet block router. Every route belongs to the authenticated owner.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Delete("/{id}", h.Delete)

	return r
}
