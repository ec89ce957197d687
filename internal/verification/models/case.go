package models

import (
	"time"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
)

// DocumentType classifies an uploaded supporting document.
type DocumentType string

const (
	DocumentPropertyDeed   DocumentType = "property_deed"
	DocumentTaxReceipt     DocumentType = "tax_receipt"
	DocumentOwnershipProof DocumentType = "ownership_proof"
	DocumentIdentityProof  DocumentType = "identity_proof"
	DocumentSurveyReport   DocumentType = "survey_report"
	DocumentOther          DocumentType = "other"
)

// ParseDocumentType validates a document type string.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case DocumentPropertyDeed, DocumentTaxReceipt, DocumentOwnershipProof,
		DocumentIdentityProof, DocumentSurveyReport, DocumentOther:
		return DocumentType(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "unknown document type: "+s)
}

// Document references a blob in the content-addressed store. Immutable and
// append-only: documents are never edited or removed from a case.
type Document struct {
	ID          id.DocumentID `json:"id"`
	Type        DocumentType  `json:"type"`
	ContentHash string        `json:"content_hash"`
	Filename    string        `json:"filename"`
	UploadedAt  time.Time     `json:"uploaded_at"`
}

// PropertyDetails describes the property under verification.
type PropertyDetails struct {
	Location     string  `json:"location"`
	Area         float64 `json:"area"`
	AreaUnit     string  `json:"area_unit"`
	PropertyType string  `json:"property_type"`
}

// InspectionReport is filed once by the assigned inspector and never
// modified afterwards.
type InspectionReport struct {
	Recommendation string           `json:"recommendation"` // approve | reject
	Notes          string           `json:"notes"`
	VisitDate      time.Time        `json:"visit_date"`
	GPSLocation    string           `json:"gps_location,omitempty"`
	ReportDocument string           `json:"report_document,omitempty"` // content hash
	SubmittedAt    time.Time        `json:"submitted_at"`
	SubmittedBy    id.WalletAddress `json:"submitted_by"`
}

const (
	RecommendationApprove = "approve"
	RecommendationReject  = "reject"
)

// NotificationType classifies a timeline entry.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is one entry of the case's append-only timeline, ordered by
// SentAt. The timeline is the audit trail of genuine transitions.
type Notification struct {
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
	SentAt  time.Time        `json:"sent_at"`
}

// PropertyVerification is the aggregate tracking one property's path from
// submission to resolution.
//
// Invariants:
//   - at most one case with a non-terminal status exists per SurveyID
//   - Documents must include property_deed and tax_receipt before the
//     status may leave pending
//   - Report is created once and is immutable; SubmittedBy must equal
//     Inspector
//   - once Status is terminal the whole aggregate is immutable history
//   - Version increments on every Save; stale writers must re-read
type PropertyVerification struct {
	ID              id.VerificationID `json:"verification_id"`
	SurveyID        id.SurveyID       `json:"survey_id"`
	Owner           id.WalletAddress  `json:"owner_address"`
	Inspector       id.WalletAddress  `json:"inspector_address,omitempty"`
	Status          Status            `json:"status"`
	Details         PropertyDetails   `json:"property_details"`
	Documents       []Document        `json:"documents"`
	Report          *InspectionReport `json:"inspection_report,omitempty"`
	Timeline        []Notification    `json:"timeline"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Version         int64             `json:"version"`
}

// NewCase constructs a submission in pending state. Document validation
// happens in the engine before construction.
func NewCase(caseID id.VerificationID, surveyID id.SurveyID, owner id.WalletAddress, details PropertyDetails, docs []Document, now time.Time) *PropertyVerification {
	return &PropertyVerification{
		ID:        caseID,
		SurveyID:  surveyID,
		Owner:     owner,
		Status:    StatusPending,
		Details:   details,
		Documents: docs,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
}

// IsClosed reports whether the case reached a terminal state.
func (c *PropertyVerification) IsClosed() bool {
	return c.Status.IsTerminal()
}

// HasRequiredDocuments checks the deed and tax receipt are present.
func (c *PropertyVerification) HasRequiredDocuments() bool {
	var deed, tax bool
	for _, d := range c.Documents {
		switch d.Type {
		case DocumentPropertyDeed:
			deed = true
		case DocumentTaxReceipt:
			tax = true
		}
	}
	return deed && tax
}

// AppendTimeline records a timeline entry. Entries are never removed or
// reordered.
func (c *PropertyVerification) AppendTimeline(message string, kind NotificationType, at time.Time) {
	c.Timeline = append(c.Timeline, Notification{Message: message, Type: kind, SentAt: at})
}

// ApplyTransition moves the case to a new status and stamps the update
// time. Callers validate legality first via CanTransition.
func (c *PropertyVerification) ApplyTransition(to Status, now time.Time) {
	c.Status = to
	c.UpdatedAt = now
}

// Clone returns a deep copy so store reads never alias store state.
func (c *PropertyVerification) Clone() *PropertyVerification {
	copied := *c
	copied.Documents = append([]Document{}, c.Documents...)
	copied.Timeline = append([]Notification{}, c.Timeline...)
	if c.Report != nil {
		report := *c.Report
		copied.Report = &report
	}
	return &copied
}
