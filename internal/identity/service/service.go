// Package service implements the identity and KYC gate.
//
// It owns user records and the KYC verified flag the workflow engine
// consults before accepting a submission. Every mutation appends a distinct
// audit event; a revocation of an already-verified user is recorded
// differently from an initial rejection.
package service

import (
	"context"
	"errors"
	"log/slog"

	"landregistry/internal/identity/metrics"
	"landregistry/internal/identity/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	audit "landregistry/pkg/platform/audit"
	"landregistry/pkg/platform/middleware/metadata"
	"landregistry/pkg/platform/sentinel"
	"landregistry/pkg/requestcontext"
)

// Store is the persistence port for user records.
type Store interface {
	Create(ctx context.Context, user *models.User) error
	FindByWallet(ctx context.Context, wallet id.WalletAddress) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// Service gates submissions on KYC state and manages roles.
type Service struct {
	store   Store
	audit   audit.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(store Store, auditStore audit.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{store: store, audit: auditStore, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureUser returns the user for a wallet, creating the record on first
// login. Creation races resolve in favor of the existing record.
func (s *Service) EnsureUser(ctx context.Context, wallet id.WalletAddress) (*models.User, error) {
	user, err := s.store.FindByWallet(ctx, wallet)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "lookup user")
	}

	now := requestcontext.Now(ctx)
	user, err = models.NewUser(wallet, now)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return s.GetUser(ctx, wallet)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "create user")
	}
	if err := s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionUserCreated,
		Actor:     wallet,
		Subject:   wallet,
	}); err != nil {
		return nil, err
	}
	s.metrics.IncrementUsersCreated()
	return user, nil
}

// GetUser retrieves a user record by wallet.
func (s *Service) GetUser(ctx context.Context, wallet id.WalletAddress) (*models.User, error) {
	user, err := s.store.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "lookup user")
	}
	return user, nil
}

// IsKYCVerified reports whether the wallet passed KYC. Unknown wallets are
// simply unverified.
func (s *Service) IsKYCVerified(ctx context.Context, wallet id.WalletAddress) (bool, error) {
	user, err := s.store.FindByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "lookup user")
	}
	return user.KYC.Verified, nil
}

// SetRole changes a user's platform role. Admin only.
func (s *Service) SetRole(ctx context.Context, actor id.Actor, target id.WalletAddress, role id.Role) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only admins may change roles")
	}
	user, err := s.GetUser(ctx, target)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	user.Role = role
	user.UpdatedAt = now
	if err := s.store.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "update user role")
	}
	if err := s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionRoleChanged,
		Actor:     actor.Wallet,
		Subject:   target,
		Reason:    string(role),
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// RecordKYCDocuments stores the content hashes of an owner's identity
// documents on their own record. Re-uploading resets any prior admin
// decision so the documents are reviewed again.
func (s *Service) RecordKYCDocuments(ctx context.Context, actor id.Actor, aadhaarHash, panHash string) (*models.User, error) {
	if aadhaarHash == "" || panHash == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "both aadhaar and pan document hashes are required")
	}
	user, err := s.GetUser(ctx, actor.Wallet)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	user.KYC.AadhaarHash = aadhaarHash
	user.KYC.PANHash = panHash
	user.KYC.Verified = false
	user.KYC.RejectionReason = ""
	user.UpdatedAt = now
	if err := s.store.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "record kyc documents")
	}
	if err := s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    audit.ActionKYCDocumentsRecorded,
		Actor:     actor.Wallet,
		Subject:   actor.Wallet,
	}); err != nil {
		return nil, err
	}
	return user, nil
}

// SetKYCStatus records an admin decision on an owner's KYC documents.
// Revoking an already-verified user is permitted and audited distinctly
// from an initial rejection.
func (s *Service) SetKYCStatus(ctx context.Context, actor id.Actor, owner id.WalletAddress, verified bool, rejectionReason string) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only admins may set KYC status")
	}
	user, err := s.GetUser(ctx, owner)
	if err != nil {
		return nil, err
	}
	if verified && !user.HasKYCDocuments() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot verify KYC before documents are recorded")
	}

	action := audit.ActionKYCVerified
	if !verified {
		if rejectionReason == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "rejection reason is required")
		}
		action = audit.ActionKYCRejected
		if user.KYC.Verified {
			action = audit.ActionKYCRevoked
		}
	}

	now := requestcontext.Now(ctx)
	user.KYC.Verified = verified
	user.KYC.RejectionReason = rejectionReason
	if verified {
		user.KYC.RejectionReason = ""
	}
	user.UpdatedAt = now
	if err := s.store.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "set kyc status")
	}
	if err := s.emit(ctx, audit.Event{
		Timestamp: now,
		Action:    action,
		Actor:     actor.Wallet,
		Subject:   owner,
		Reason:    rejectionReason,
	}); err != nil {
		return nil, err
	}
	s.metrics.RecordKYCDecision(string(action))
	return user, nil
}

// UpdateProfile lets a user edit their own contact details.
func (s *Service) UpdateProfile(ctx context.Context, actor id.Actor, profile models.Profile) (*models.User, error) {
	user, err := s.GetUser(ctx, actor.Wallet)
	if err != nil {
		return nil, err
	}
	user.Profile = profile
	user.UpdatedAt = requestcontext.Now(ctx)
	if err := s.store.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "update profile")
	}
	return user, nil
}

// emit appends a KYC/identity audit event. Fail-closed: these events have
// regulatory significance, so the calling operation fails if the append does.
func (s *Service) emit(ctx context.Context, event audit.Event) error {
	event.RequestID = requestcontext.RequestID(ctx)
	event.SourceIP = metadata.ClientIP(ctx)
	if err := s.audit.Append(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "identity audit append failed",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit append failed")
	}
	return nil
}
