package handler

import (
	"time"

	"guardian/internal/guardian"
	"guardian/internal/guardian/service"
	"guardian/internal/wsqk"
)

// EvaluateResponse is the HTTP response for POST /guardian/evaluate.
type EvaluateResponse struct {
	DecisionID        string                                 `json:"decision_id"`
	WalletID          string                                 `json:"wallet_id"`
	Action            string                                 `json:"action"`
	Verdict           string                                 `json:"verdict"`
	Score             float64                                `json:"score"`
	Coverage          float64                                `json:"coverage"`
	Reasons           []string                               `json:"reasons"`
	Breakdown         map[guardian.Layer]guardian.LayerScore `json:"breakdown"`
	Signals           []guardian.Signal                      `json:"signals"`
	HintsApplied      bool                                   `json:"hints_applied"`
	HintsVersion      string                                 `json:"hints_version,omitempty"`
	StabilityIndex    float64                                `json:"stability_index"`
	PolicyVersion     string                                 `json:"policy_version"`
	PolicyHash        string                                 `json:"policy_hash"`
	EvaluatedAt       time.Time                              `json:"evaluated_at"`
	IncidentID        string                                 `json:"incident_id,omitempty"`
	LockdownTriggered bool                                   `json:"lockdown_triggered"`
	Token             *wsqk.Token                            `json:"token,omitempty"`
}

func FromResult(r *service.Result) *EvaluateResponse {
	d := r.Decision
	resp := &EvaluateResponse{
		DecisionID:        d.ID.String(),
		WalletID:          d.WalletID.String(),
		Action:            string(d.Action),
		Verdict:           string(d.Verdict),
		Score:             d.Score,
		Coverage:          d.Coverage,
		Reasons:           d.Reasons,
		Breakdown:         d.Breakdown,
		Signals:           r.Signals,
		HintsApplied:      d.HintsApplied,
		HintsVersion:      d.HintsVersion,
		StabilityIndex:    d.StabilityIndex,
		PolicyVersion:     d.PolicyVersion,
		PolicyHash:        d.PolicyHash,
		EvaluatedAt:       d.EvaluatedAt,
		LockdownTriggered: r.LockdownTriggered,
		Token:             r.Token,
	}
	if resp.Reasons == nil {
		resp.Reasons = []string{}
	}
	if resp.Signals == nil {
		resp.Signals = []guardian.Signal{}
	}
	if r.IncidentID != nil {
		resp.IncidentID = r.IncidentID.String()
	}
	return resp
}

// PolicyResponse is the HTTP response for GET /guardian/policy.
type PolicyResponse struct {
	Policy guardian.Policy `json:"policy"`
	Hash   string          `json:"hash"`
}
