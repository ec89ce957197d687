// Package domain defines the typed identifiers shared across the service.
//
// IDs are distinct types so the compiler rejects cross-type assignment: a
// DocumentID can never be passed where a VerificationID is expected. Parse
// functions enforce the invariant that identifiers are valid and non-empty
// at trust boundaries.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "landregistry/pkg/domain-errors"
)

// VerificationID identifies one PropertyVerification case.
type VerificationID uuid.UUID

// DocumentID identifies one uploaded document record.
type DocumentID uuid.UUID

// WalletAddress is the case-insensitive key for a user. Stored and compared
// in lowercase form.
type WalletAddress string

// SurveyID is the business key of a property. One open case per SurveyID.
type SurveyID string

func (v VerificationID) String() string { return uuid.UUID(v).String() }
func (v VerificationID) IsNil() bool    { return uuid.UUID(v) == uuid.Nil }

func (d DocumentID) String() string { return uuid.UUID(d).String() }
func (d DocumentID) IsNil() bool    { return uuid.UUID(d) == uuid.Nil }

func (w WalletAddress) String() string { return string(w) }
func (s SurveyID) String() string      { return string(s) }

// NewVerificationID generates a fresh case identifier.
func NewVerificationID() VerificationID { return VerificationID(uuid.New()) }

// NewDocumentID generates a fresh document identifier.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// ParseVerificationID validates and converts a string form of a case ID.
func ParseVerificationID(s string) (VerificationID, error) {
	u, err := parseUUID(s, "verification id")
	if err != nil {
		return VerificationID{}, err
	}
	return VerificationID(u), nil
}

// ParseDocumentID validates and converts a string form of a document ID.
func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID(s, "document id")
	if err != nil {
		return DocumentID{}, err
	}
	return DocumentID(u), nil
}

// ParseWalletAddress normalizes a wallet address to its lowercase form.
// Rejects empty and whitespace-containing input.
func ParseWalletAddress(s string) (WalletAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address is required")
	}
	if strings.ContainsAny(s, " \t\n") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "wallet address must not contain whitespace")
	}
	return WalletAddress(strings.ToLower(s)), nil
}

// ParseSurveyID validates a survey identifier.
func ParseSurveyID(s string) (SurveyID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "survey id is required")
	}
	return SurveyID(s), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be nil")
	}
	return u, nil
}
