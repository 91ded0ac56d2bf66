package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"guardian/internal/guardian"
	"guardian/internal/lockdown"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

const maxReasonLength = 128

type Service interface {
	Check(ctx context.Context, walletID domain.WalletID) (lockdown.Status, error)
	Lock(ctx context.Context, walletID domain.WalletID, duration time.Duration, reason string) (lockdown.Status, error)
	Clear(ctx context.Context, walletID domain.WalletID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/wallets/{walletID}/lockdown", h.HandleGet)
}

// RegisterAdmin mounts manual lock and clear. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/wallets/{walletID}/lockdown", h.HandleLock)
	r.Delete("/wallets/{walletID}/lockdown", h.HandleClear)
}

// LockRequest freezes a wallet. An omitted duration locks until cleared.
type LockRequest struct {
	Duration guardian.Duration `json:"duration"`
	Reason   string            `json:"reason"`
}

func (r *LockRequest) Validate() error {
	r.Reason = strings.TrimSpace(r.Reason)
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, "reason is too long")
	}
	if r.Duration < 0 {
		return dErrors.New(dErrors.CodeValidation, "duration must not be negative")
	}
	return nil
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	status, err := h.service.Check(ctx, walletID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check lockdown",
			"request_id", requestcontext.RequestID(ctx),
			"wallet_id", walletID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleLock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[LockRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	status, err := h.service.Lock(ctx, walletID, req.Duration.Std(), req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to lock wallet",
			"request_id", requestID,
			"wallet_id", walletID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Clear(ctx, walletID); err != nil {
		h.logger.ErrorContext(ctx, "failed to clear lockdown",
			"request_id", requestcontext.RequestID(ctx),
			"wallet_id", walletID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
