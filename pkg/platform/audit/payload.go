package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"guardian/pkg/domain"
)

// payload is the JSON document stored in the outbox and published to Kafka.
type payload struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	WalletID   string `json:"wallet_id,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Action     string `json:"action"`
	Decision   string `json:"decision,omitempty"`
	Reason     string `json:"reason,omitempty"`
	PolicyHash string `json:"policy_hash,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	ActorID    string `json:"actor_id,omitempty"`
	IP         string `json:"ip,omitempty"`
	Severity   string `json:"severity,omitempty"`
}

// MarshalPayload encodes an event for the outbox.
func MarshalPayload(e Event) ([]byte, error) {
	return json.Marshal(payload{
		ID:         e.ID.String(),
		Category:   string(e.Category),
		Timestamp:  e.Timestamp.UTC().Format(time.RFC3339Nano),
		WalletID:   e.WalletID.String(),
		Subject:    e.Subject,
		Action:     e.Action,
		Decision:   e.Decision,
		Reason:     e.Reason,
		PolicyHash: e.PolicyHash,
		RequestID:  e.RequestID,
		ActorID:    e.ActorID,
		IP:         e.IP,
		Severity:   string(e.Severity),
	})
}

// UnmarshalPayload decodes an outbox payload.
func UnmarshalPayload(data []byte) (Event, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Event{}, fmt.Errorf("decode audit payload: %w", err)
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return Event{}, fmt.Errorf("decode audit payload id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Timestamp)
	if err != nil {
		return Event{}, fmt.Errorf("decode audit payload timestamp: %w", err)
	}
	return Event{
		ID:         id,
		Category:   EventCategory(p.Category),
		Timestamp:  ts,
		WalletID:   domain.WalletID(p.WalletID),
		Subject:    p.Subject,
		Action:     p.Action,
		Decision:   p.Decision,
		Reason:     p.Reason,
		PolicyHash: p.PolicyHash,
		RequestID:  p.RequestID,
		ActorID:    p.ActorID,
		IP:         p.IP,
		Severity:   Severity(p.Severity),
	}, nil
}

// Seal prepares e for an outbox row: it assigns an id when missing, derives
// the category from the action and encodes the payload.
func Seal(e Event) (Event, []byte, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.Category = AuditEvent(e.Action).Category()
	data, err := MarshalPayload(e)
	if err != nil {
		return Event{}, nil, fmt.Errorf("marshal audit payload: %w", err)
	}
	return e, data, nil
}
