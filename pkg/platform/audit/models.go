package audit

import (
	"time"

	"github.com/google/uuid"

	"guardian/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// Each category has its own delivery guarantees and Kafka topic.
type EventCategory string

const (
	// CategoryCompliance covers events that must never be lost: verdicts and
	// incident lifecycle. Written synchronously inside the caller's transaction.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers lockdowns and degraded-mode signals for alerting.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity and may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Topic returns the Kafka topic events of this category are published to.
func (c EventCategory) Topic() string {
	return "guardian.audit." + string(c)
}

// Categories lists every category, in topic provisioning order.
func Categories() []EventCategory {
	return []EventCategory{CategoryCompliance, CategorySecurity, CategoryOperations}
}

// Event is the transport-agnostic audit record stored in the outbox.
type Event struct {
	ID         uuid.UUID
	Category   EventCategory
	Timestamp  time.Time
	WalletID   domain.WalletID
	Subject    string
	Action     string
	Decision   string
	Reason     string
	PolicyHash string
	RequestID  string
	ActorID    string
	IP         string
	Severity   Severity
}

type AuditEvent string

const (
	EventDecisionMade     AuditEvent = "decision_made"
	EventIncidentOpened   AuditEvent = "incident_opened"
	EventIncidentResolved AuditEvent = "incident_resolved"

	EventLockdownTriggered AuditEvent = "lockdown_triggered"
	EventLockdownCleared   AuditEvent = "lockdown_cleared"
	EventHintsFallback     AuditEvent = "hints_fallback"
	EventTokenRejected     AuditEvent = "token_rejected"
	EventReputationUpdated AuditEvent = "reputation_updated"
	EventHintsPublished    AuditEvent = "hints_published"
	EventProfileUpdated    AuditEvent = "profile_updated"
	EventTokenAuthorized   AuditEvent = "token_authorized"
	EventIncidentsPruned   AuditEvent = "incidents_pruned"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDecisionMade:     CategoryCompliance,
	EventIncidentOpened:   CategoryCompliance,
	EventIncidentResolved: CategoryCompliance,

	EventLockdownTriggered: CategorySecurity,
	EventLockdownCleared:   CategorySecurity,
	EventHintsFallback:     CategorySecurity,
	EventTokenRejected:     CategorySecurity,
	EventReputationUpdated: CategorySecurity,
	EventHintsPublished:    CategorySecurity,

	EventProfileUpdated:  CategoryOperations,
	EventTokenAuthorized: CategoryOperations,
	EventIncidentsPruned: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// ComplianceEvent records a verdict or incident transition. Emitted fail-closed.
type ComplianceEvent struct {
	Timestamp  time.Time
	WalletID   domain.WalletID
	Subject    string // decision or incident id
	Action     AuditEvent
	Decision   string // verdict
	Reason     string
	PolicyHash string
	RequestID  string
	ActorID    string
}

func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:   CategoryCompliance,
		Timestamp:  e.Timestamp,
		WalletID:   e.WalletID,
		Subject:    e.Subject,
		Action:     string(e.Action),
		Decision:   e.Decision,
		Reason:     e.Reason,
		PolicyHash: e.PolicyHash,
		RequestID:  e.RequestID,
		ActorID:    e.ActorID,
	}
}

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// SecurityEvent is buffered and flushed asynchronously.
type SecurityEvent struct {
	Timestamp time.Time
	WalletID  domain.WalletID
	Subject   string
	Action    AuditEvent
	Reason    string
	IP        string
	RequestID string
	ActorID   string
	Severity  Severity
}

func (e SecurityEvent) Category() EventCategory { return CategorySecurity }

func (e SecurityEvent) ToEvent() Event {
	return Event{
		Category:  CategorySecurity,
		Timestamp: e.Timestamp,
		WalletID:  e.WalletID,
		Subject:   e.Subject,
		Action:    string(e.Action),
		Reason:    e.Reason,
		IP:        e.IP,
		RequestID: e.RequestID,
		ActorID:   e.ActorID,
		Severity:  e.Severity,
	}
}

// OpsEvent is fire-and-forget and subject to sampling.
type OpsEvent struct {
	Timestamp time.Time
	WalletID  domain.WalletID
	Subject   string
	Action    AuditEvent
	RequestID string
}

func (e OpsEvent) Category() EventCategory { return CategoryOperations }

func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		WalletID:  e.WalletID,
		Subject:   e.Subject,
		Action:    string(e.Action),
		RequestID: e.RequestID,
	}
}
