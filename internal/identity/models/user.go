package models

import (
	"time"

	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
)

// Profile holds the user-editable contact details.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// KYCInfo tracks the identity documents an owner uploaded and the admin
// decision on them. Hashes reference the content-addressed document store;
// raw document bytes never enter this record.
type KYCInfo struct {
	AadhaarHash     string `json:"aadhaar_hash"`
	PANHash         string `json:"pan_hash"`
	Verified        bool   `json:"verified"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

// User is the wallet-bound identity record.
//
// Invariants:
//   - Wallet is the unique, case-insensitive key (normalized lowercase)
//   - Role is mutated only by an admin
//   - KYC hashes are mutated by the owner, the verified flag by an admin
//   - Created on first login, never deleted
type User struct {
	Wallet    id.WalletAddress `json:"wallet_address"`
	Role      id.Role          `json:"role"`
	Profile   Profile          `json:"profile"`
	KYC       KYCInfo          `json:"kyc"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewUser constructs the record created on first login. New wallets start
// as owners; admins promote inspectors and other admins explicitly.
func NewUser(wallet id.WalletAddress, now time.Time) (*User, error) {
	if wallet == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "wallet address is required")
	}
	return &User{
		Wallet:    wallet,
		Role:      id.RoleOwner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasKYCDocuments reports whether both identity documents were recorded.
func (u *User) HasKYCDocuments() bool {
	return u.KYC.AadhaarHash != "" && u.KYC.PANHash != ""
}
