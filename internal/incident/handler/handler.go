package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"guardian/internal/incident"
	"guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/httputil"
	"guardian/pkg/requestcontext"
)

const maxNoteLength = 512

// Service defines the incident operations exposed over HTTP.
type Service interface {
	List(ctx context.Context, walletID domain.WalletID, limit int) ([]incident.Incident, error)
	Resolve(ctx context.Context, walletID domain.WalletID, id domain.IncidentID, note string) (*incident.Incident, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the read-only routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/wallets/{walletID}/incidents", h.HandleList)
}

// RegisterAdmin mounts the operator routes. The caller applies admin auth.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/wallets/{walletID}/incidents/{incidentID}/resolve", h.HandleResolve)
}

type ResolveRequest struct {
	Note string `json:"note"`
}

func (r *ResolveRequest) Validate() error {
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > maxNoteLength {
		return dErrors.New(dErrors.CodeValidation, "note is too long")
	}
	return nil
}

type IncidentResponse struct {
	ID             string     `json:"id"`
	WalletID       string     `json:"wallet_id"`
	DecisionID     string     `json:"decision_id,omitempty"`
	Verdict        string     `json:"verdict"`
	Score          float64    `json:"score"`
	Reasons        []string   `json:"reasons"`
	PolicyVersion  string     `json:"policy_version"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
}

type ListResponse struct {
	Incidents []IncidentResponse `json:"incidents"`
}

func toResponse(inc *incident.Incident) IncidentResponse {
	resp := IncidentResponse{
		ID:             inc.ID.String(),
		WalletID:       inc.WalletID.String(),
		Verdict:        string(inc.Verdict),
		Score:          inc.Score,
		Reasons:        inc.Reasons,
		PolicyVersion:  inc.PolicyVersion,
		CreatedAt:      inc.CreatedAt,
		ResolvedAt:     inc.ResolvedAt,
		ResolutionNote: inc.ResolutionNote,
	}
	if !inc.DecisionID.IsNil() {
		resp.DecisionID = inc.DecisionID.String()
	}
	if resp.Reasons == nil {
		resp.Reasons = []string{}
	}
	return resp
}

// HandleList handles GET /wallets/{walletID}/incidents?limit=N.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "limit must be a positive integer"))
			return
		}
	}

	incidents, err := h.service.List(ctx, walletID, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list incidents",
			"request_id", requestcontext.RequestID(ctx),
			"wallet_id", walletID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Incidents: make([]IncidentResponse, 0, len(incidents))}
	for i := range incidents {
		resp.Incidents = append(resp.Incidents, toResponse(&incidents[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleResolve handles POST /wallets/{walletID}/incidents/{incidentID}/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	incidentID, err := domain.ParseIncidentID(chi.URLParam(r, "incidentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	inc, err := h.service.Resolve(ctx, walletID, incidentID, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve incident",
			"request_id", requestID,
			"wallet_id", walletID,
			"incident_id", incidentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(inc))
}
