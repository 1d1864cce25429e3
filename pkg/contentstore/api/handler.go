// Package api exposes the content store over HTTP for the portal UI.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/roastery-portal/pkg/contentstore"
	"github.com/tendant/roastery-portal/pkg/contentstore/export"
	"github.com/tendant/roastery-portal/pkg/contentstore/schema"
)

// maxImportBytes bounds an uploaded import document
const maxImportBytes = 16 << 20

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithHub enables the /ws endpoint
func WithHub(hub *Hub) Option {
	return func(h *Handler) {
		h.hub = hub
	}
}

// WithNow sets the time source used for export file names
func WithNow(now func() time.Time) Option {
	return func(h *Handler) {
		h.now = now
	}
}

// Handler serves the portal's content operations
type Handler struct {
	store    *contentstore.Store
	registry *schema.Registry
	hub      *Hub
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a handler over store. Entry data is validated against registry.
func NewHandler(store *contentstore.Store, registry *schema.Registry, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		registry: registry,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the routes for the portal
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.logRequests)

	r.Get("/types", h.ListTypes)
	r.Get("/stats", h.GetStats)

	r.Route("/entries/{type}", func(r chi.Router) {
		r.Use(h.requireType)
		r.Get("/", h.ListEntries)
		r.Post("/", h.CreateEntry)
		r.Get("/{id}", h.GetEntry)
		r.Patch("/{id}", h.UpdateEntry)
		r.Delete("/{id}", h.DeleteEntry)
	})

	r.Post("/save", h.Save)
	r.Post("/reload", h.Reload)
	r.Post("/clear", h.Clear)

	r.Get("/export.json", h.ExportJSON)
	r.Get("/export/{type}.csv", h.ExportCSV)
	r.Post("/import", h.Import)

	if h.hub != nil {
		r.Get("/ws", h.hub.ServeWS)
	}

	return r
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
}

// TypeResponse describes a content type and its entry count
type TypeResponse struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

func (h *Handler) requireType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		typ := chi.URLParam(r, "type")
		if _, ok := h.registry.Lookup(typ); !ok {
			h.writeError(w, r, http.StatusNotFound, contentstore.ErrUnknownContentType.Error()+": "+typ)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListTypes returns every registered content type with its entry count
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	counts := h.store.EntryCounts()
	types := h.registry.Types()
	resp := make([]TypeResponse, 0, len(types))
	for _, ct := range types {
		resp = append(resp, TypeResponse{
			ID:          ct.ID,
			Label:       ct.Label,
			Icon:        ct.Icon,
			Description: ct.Description,
			Count:       counts[ct.ID],
		})
	}
	render.JSON(w, r, resp)
}

// GetStats returns per-type counts, the total and the last persist time
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.store.Stats())
}

// ListEntries returns the entries of one type in insertion order
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.store.EntriesByType(chi.URLParam(r, "type")))
}

// GetEntry returns one entry
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.store.Entry(chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if !ok {
		h.writeError(w, r, http.StatusNotFound, "entry not found")
		return
	}
	render.JSON(w, r, entry)
}

// CreateEntry validates the body, applies type defaults and creates the entry
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	data = h.registry.ApplyDefaults(typ, data)
	if err := h.registry.Validate(typ, data); err != nil {
		h.writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	entry, err := h.store.CreateEntry(r.Context(), typ, data)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to create entry", "type", typ, "err", err)
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, entry)
}

// UpdateEntry merges the body into an entry. The merged result must validate.
// Updating a missing entry is accepted and changes nothing.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	id := chi.URLParam(r, "id")

	var partial map[string]any
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	if existing, ok := h.store.Entry(typ, id); ok {
		merged := existing.Data
		if merged == nil {
			merged = map[string]any{}
		}
		for k, v := range partial {
			merged[k] = v
		}
		if err := h.registry.Validate(typ, merged); err != nil {
			h.writeError(w, r, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	h.store.UpdateEntry(typ, id, partial)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteEntry removes an entry
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	h.store.DeleteEntry(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// Save persists the current state immediately
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Save(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, contentstore.ErrQuotaExceeded) {
			status = http.StatusInsufficientStorage
		}
		h.writeError(w, r, status, err.Error())
		return
	}
	render.JSON(w, r, h.store.Stats())
}

// Reload discards unsaved edits and reloads the persisted document
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	h.store.Reload(r.Context())
	render.JSON(w, r, h.store.Stats())
}

// Clear resets the store to an empty document
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// ExportJSON downloads the full document
func (h *Handler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	raw, err := export.JSON(h.store.Snapshot())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", attachment(export.JSONFileName(h.now())))
	w.Write(raw)
}

// ExportCSV downloads the entries of one type as CSV
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	typ := chi.URLParam(r, "type")
	if _, ok := h.registry.Lookup(typ); !ok {
		h.writeError(w, r, http.StatusNotFound, contentstore.ErrUnknownContentType.Error()+": "+typ)
		return
	}

	out, err := export.CSV(h.store.EntriesByType(typ))
	if errors.Is(err, contentstore.ErrNoEntries) {
		h.writeError(w, r, http.StatusNotFound, export.NoEntriesMessage)
		return
	}
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv;charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(export.CSVFileName(typ, h.now())))
	io.WriteString(w, out)
}

// Import replaces all content with an uploaded export document
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Import(r.Context(), raw); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, contentstore.ErrInvalidDocument):
			status = http.StatusBadRequest
		case errors.Is(err, contentstore.ErrQuotaExceeded):
			status = http.StatusInsufficientStorage
		}
		h.writeError(w, r, status, err.Error())
		return
	}
	render.JSON(w, r, h.store.Stats())
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", msg)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func attachment(name string) string {
	return `attachment; filename="` + name + `"`
}
