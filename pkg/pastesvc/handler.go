package pastesvc

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// Handler serves the paste wire contract: POST a raw body to get a retrieval
// URL back as plain text, GET the URL to read the body with its original
// content type.
type Handler struct {
	store Store
	cfg   Config
	log   zerolog.Logger
}

// NewHandler creates an HTTP handler around store.
func NewHandler(store Store, cfg Config, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		cfg:   cfg.WithDefaults(),
		log:   log.With().Str("component", "paste-handler").Logger(),
	}
}

// RegisterRoutes attaches the service routes to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/paste", h.handlePut)
	mux.HandleFunc("GET /v1/paste/{id}", h.handleGet)
}

func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("paste exceeds the %d byte limit", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	now := time.Now()
	entry := &Entry{
		ID:          xid.New().String(),
		ContentType: contentType,
		Content:     body,
		CreatedAt:   now,
		ExpiresAt:   now.Add(h.cfg.Retention),
	}
	if err := h.store.Put(r.Context(), entry); err != nil {
		h.log.Err(err).Str("paste_id", entry.ID).Msg("Failed to store paste")
		http.Error(w, "storing paste: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.log.Debug().
		Str("paste_id", entry.ID).
		Str("content_type", contentType).
		Int("size", len(body)).
		Msg("Stored paste")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, h.retrievalURL(r, entry.ID))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entry, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "paste not found", http.StatusNotFound)
			return
		}
		h.log.Err(err).Str("paste_id", id).Msg("Failed to load paste")
		http.Error(w, "loading paste: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	contentType := entry.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(entry.Content)
}

// retrievalURL builds the URL a stored paste can be fetched from. With no
// configured public base the request's own host and path are reused.
func (h *Handler) retrievalURL(r *http.Request, id string) string {
	base := strings.TrimSuffix(h.cfg.PublicBaseURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/")
	}
	return base + "/" + id
}
