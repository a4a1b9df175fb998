package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/propdoc/internal/apperr"
	"github.com/starford/propdoc/internal/docgen"
	"github.com/starford/propdoc/internal/proptree"
)

// DocumentService renders the property document on demand.
type DocumentService interface {
	Render(ctx context.Context) (*docgen.Result, error)
	Tree(ctx context.Context) (*proptree.Node, error)
	HTML(ctx context.Context) (string, error)
}

// Handler holds API route handlers.
type Handler struct {
	svc DocumentService
}

// NewHandler creates a new Handler.
func NewHandler(svc DocumentService) *Handler {
	return &Handler{svc: svc}
}

// GetDocument handles GET /document.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Render(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, "text/markdown", res.Document)
}

// GetDocumentHTML handles GET /document/html.
func (h *Handler) GetDocumentHTML(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.HTML(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, "text/html", page)
}

// GetOutline handles GET /document/outline.
func (h *Handler) GetOutline(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Render(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, "text/html", res.Outline)
}

// GetTable handles GET /document/table.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Render(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeText(w, "text/html", res.Table)
}

// ListProperties handles GET /properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Tree(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PropertyTreeResponse{
		Root:       tree.Name,
		Count:      tree.Count(),
		Properties: tree.Children,
	})
}

// GetProperty handles GET /properties/{name}.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid property name"))
		return
	}
	tree, err := h.svc.Tree(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	n, ok := tree.Find(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("property not found"))
		return
	}
	writeJSON(w, http.StatusOK, toRow(n))
}

func writeServiceError(w http.ResponseWriter, err error) {
	var mErr *apperr.MalformedMarkupError
	switch {
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrNoRootProperty):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.As(err, &mErr):
		slog.Error("renderer produced malformed markup", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	default:
		slog.Error("render failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
