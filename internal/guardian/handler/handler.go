// Package handler exposes evaluation, execution authorization and the active
// policy over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"guardian/internal/guardian"
	"guardian/internal/guardian/service"
	"guardian/internal/wsqk"
	"guardian/pkg/domain"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

type Service interface {
	Evaluate(ctx context.Context, tc guardian.TransactionContext) (*service.Result, error)
	Policy() (guardian.Policy, string)
}

type Gate interface {
	Authorize(ctx context.Context, token string, walletID domain.WalletID, txDigest string, conf wsqk.Confirmation) (*wsqk.Authorization, error)
}

type Handler struct {
	service Service
	gate    Gate
	logger  *slog.Logger
}

func New(service Service, gate Gate, logger *slog.Logger) *Handler {
	return &Handler{service: service, gate: gate, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/guardian/evaluate", h.HandleEvaluate)
	r.Post("/guardian/authorize", h.HandleAuthorize)
	r.Get("/guardian/policy", h.HandlePolicy)
}

// HandleEvaluate handles POST /guardian/evaluate.
func (h *Handler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[EvaluateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	tc := req.ToContext(requestcontext.Now(ctx), requestcontext.UserAgent(ctx), requestcontext.ClientIP(ctx))

	result, err := h.service.Evaluate(ctx, tc)
	if err != nil {
		h.logger.ErrorContext(ctx, "guardian evaluation failed",
			"request_id", requestID,
			"wallet_id", tc.WalletID,
			"action", tc.Action,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "guardian evaluated",
		"request_id", requestID,
		"wallet_id", tc.WalletID,
		"verdict", result.Decision.Verdict,
		"token_issued", result.Token != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleAuthorize handles POST /guardian/authorize. A 200 response consumes
// the token.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AuthorizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	auth, err := h.gate.Authorize(ctx, req.Token, req.walletID, req.TxDigest, req.Confirmation())
	if err != nil {
		h.logger.WarnContext(ctx, "execution not authorized",
			"request_id", requestID,
			"wallet_id", req.walletID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, auth)
}

func (h *Handler) HandlePolicy(w http.ResponseWriter, r *http.Request) {
	policy, hash := h.service.Policy()
	httputil.WriteJSON(w, http.StatusOK, PolicyResponse{Policy: policy, Hash: hash})
}
