package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"guardian/internal/shield/dqsn"
	"guardian/pkg/domain"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

type Registry interface {
	Get(ctx context.Context, addr domain.Address) (*dqsn.Reputation, error)
	Set(ctx context.Context, addr domain.Address, level dqsn.Level, source string) (*dqsn.Reputation, error)
}

type Handler struct {
	registry Registry
	logger   *slog.Logger
}

func New(registry Registry, logger *slog.Logger) *Handler {
	return &Handler{registry: registry, logger: logger}
}

// RegisterAdmin mounts the reputation routes. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/destinations/{address}/reputation", h.HandleGet)
	r.Put("/destinations/{address}/reputation", h.HandleSet)
}

type SetRequest struct {
	Level  string `json:"level"`
	Source string `json:"source"`

	level dqsn.Level
}

func (r *SetRequest) Validate() error {
	level, err := dqsn.ParseLevel(r.Level)
	if err != nil {
		return err
	}
	r.level = level
	return nil
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rep, err := h.registry.Get(ctx, addr)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}

func (h *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rep, err := h.registry.Set(ctx, addr, req.level, req.Source)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to set reputation",
			"request_id", requestID,
			"address", addr,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rep)
}
