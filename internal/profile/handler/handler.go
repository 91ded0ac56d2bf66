package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"guardian/internal/profile"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

// Reader is the read side of the profile store.
type Reader interface {
	Get(ctx context.Context, walletID domain.WalletID) (*profile.Profile, error)
}

type Handler struct {
	profiles Reader
	logger   *slog.Logger
}

func New(profiles Reader, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/wallets/{walletID}/profile", h.HandleGet)
}

// ProfileResponse is the JSON view of a behavior profile.
type ProfileResponse struct {
	WalletID          string    `json:"wallet_id"`
	TxCount           int64     `json:"tx_count"`
	TotalAmount       int64     `json:"total_amount"`
	MaxAmount         int64     `json:"max_amount"`
	MeanAmount        float64   `json:"mean_amount"`
	MeanDailyCount    float64   `json:"mean_daily_count"`
	KnownDestinations []string  `json:"known_destinations"`
	KnownDevices      int       `json:"known_devices"`
	LastPlatform      string    `json:"last_platform,omitempty"`
	DaysObserved      int64     `json:"days_observed"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toResponse(p *profile.Profile) ProfileResponse {
	destinations := p.KnownDestinations
	if destinations == nil {
		destinations = []string{}
	}
	return ProfileResponse{
		WalletID:          p.WalletID.String(),
		TxCount:           p.TxCount,
		TotalAmount:       p.TotalAmount,
		MaxAmount:         p.MaxAmount,
		MeanAmount:        p.MeanAmount(),
		MeanDailyCount:    p.MeanDailyCount(),
		KnownDestinations: destinations,
		KnownDevices:      len(p.KnownDevices),
		LastPlatform:      p.LastPlatform,
		DaysObserved:      p.DaysObserved,
		UpdatedAt:         p.UpdatedAt,
	}
}

// HandleGet handles GET /wallets/{walletID}/profile.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.profiles.Get(ctx, walletID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load behavior profile",
			"request_id", requestID,
			"wallet_id", walletID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile"))
		return
	}
	if p == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no profile for wallet"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}
