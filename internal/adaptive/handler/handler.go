package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"guardian/internal/adaptive"
	"guardian/internal/guardian"
	"guardian/pkg/domain"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

type Publisher interface {
	Publish(ctx context.Context, walletID domain.WalletID, hints guardian.WeightHints) (*guardian.WeightHints, error)
}

type Handler struct {
	publisher Publisher
	logger    *slog.Logger
}

func New(publisher Publisher, logger *slog.Logger) *Handler {
	return &Handler{publisher: publisher, logger: logger}
}

// RegisterAdmin mounts hint publishing. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/wallets/{walletID}/hints", h.HandlePublishWallet)
	r.Put("/hints", h.HandlePublishGlobal)
}

type PublishRequest struct {
	Multipliers map[guardian.Layer]float64 `json:"multipliers"`
	Version     string                     `json:"version"`
	IssuedAt    *time.Time                 `json:"issued_at,omitempty"`
}

func (r *PublishRequest) Validate() error {
	return adaptive.ValidateHints(r.hints())
}

func (r *PublishRequest) hints() guardian.WeightHints {
	h := guardian.WeightHints{Multipliers: r.Multipliers, Version: r.Version}
	if r.IssuedAt != nil {
		h.IssuedAt = r.IssuedAt.UTC()
	}
	return h
}

func (h *Handler) HandlePublishWallet(w http.ResponseWriter, r *http.Request) {
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.publish(w, r, walletID)
}

func (h *Handler) HandlePublishGlobal(w http.ResponseWriter, r *http.Request) {
	h.publish(w, r, "")
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request, walletID domain.WalletID) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[PublishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	hints, err := h.publisher.Publish(ctx, walletID, req.hints())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to publish hints",
			"request_id", requestID,
			"wallet_id", walletID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hints)
}
