package contextsvc

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"go.mau.fi/util/exhttp"

	"github.com/draftpad/urlcontext/pkg/contextapi"
)

// Handler serves the context service wire contract over HTTP.
type Handler struct {
	resolver *Resolver
	log      zerolog.Logger
}

// NewHandler creates an HTTP handler around resolver.
func NewHandler(resolver *Resolver, log zerolog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		log:      log.With().Str("component", "context-handler").Logger(),
	}
}

// RegisterRoutes attaches the service routes to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/context", h.handleGetContext)
}

func (h *Handler) handleGetContext(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		exhttp.WriteJSONResponse(w, http.StatusBadRequest, contextapi.ErrorResponse{Error: "missing url parameter"})
		return
	}

	resolved, err := h.resolver.Resolve(r.Context(), target)
	if err != nil {
		status := http.StatusBadGateway
		var respErr *RespError
		if errors.As(err, &respErr) {
			status = respErr.Status
		}
		h.log.Debug().Err(err).Int("status", status).Str("url", target).Msg("Context resolve failed")
		exhttp.WriteJSONResponse(w, status, contextapi.ErrorResponse{Error: err.Error()})
		return
	}
	exhttp.WriteJSONResponse(w, http.StatusOK, resolved)
}
