package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc DocumentService, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/document", h.GetDocument)
	r.Get("/document/html", h.GetDocumentHTML)
	r.Get("/document/outline", h.GetOutline)
	r.Get("/document/table", h.GetTable)

	r.Get("/properties", h.ListProperties)
	r.Get("/properties/{name}", h.GetProperty)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
