package audit

import (
	"context"
	"time"

	id "landregistry/pkg/domain"
)

// Action names the auditable operations of the registry. Every identity/KYC
// mutation and every case transition appends exactly one event.
type Action string

const (
	ActionUserCreated          Action = "user_created"
	ActionRoleChanged          Action = "role_changed"
	ActionKYCDocumentsRecorded Action = "kyc_documents_recorded"
	ActionKYCVerified          Action = "kyc_verified"
	ActionKYCRejected          Action = "kyc_rejected"
	ActionKYCRevoked           Action = "kyc_revoked"
	ActionCaseSubmitted        Action = "case_submitted"
	ActionInspectorAssigned    Action = "inspector_assigned"
	ActionVisitScheduled       Action = "visit_scheduled"
	ActionReportSubmitted      Action = "report_submitted"
	ActionCaseVerified         Action = "case_verified"
	ActionCaseRejected         Action = "case_rejected"
	ActionPropertyMaterialized Action = "property_materialized"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Action    Action
	// Actor is the wallet that performed the action.
	Actor id.WalletAddress
	// Subject is the wallet the action was performed on, when different
	// from Actor (admin operations on an owner's KYC record).
	Subject id.WalletAddress
	// CaseID links the event to a verification case, when applicable.
	CaseID string
	// Reason carries remarks and rejection reasons verbatim.
	Reason string
	// RequestID is the correlation ID from the request context.
	RequestID string
	// SourceIP is the client address the triggering request came from.
	SourceIP string
}

// Store persists audit events. Append-only; no update or delete surface.
type Store interface {
	Append(ctx context.Context, event Event) error
}
