// Package service exposes the property registry projection: the
// read-optimized view uniting resolved-verified cases with their live
// Property records. It is never a source of verification-status
// transitions.
package service

import (
	"context"
	"errors"
	"log/slog"

	"landregistry/internal/registry/models"
	"landregistry/internal/registry/store"
	verificationmodels "landregistry/internal/verification/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/sentinel"
	"landregistry/pkg/requestcontext"
)

// Service materializes and serves property projections.
type Service struct {
	store  store.PropertyStore
	logger *slog.Logger
}

func New(propertyStore store.PropertyStore, logger *slog.Logger) *Service {
	return &Service{store: propertyStore, logger: logger}
}

// MaterializeFromVerification creates the Property record for a case
// resolving as verified. The engine invokes it before the closing write, so
// it may be replayed when that write fails or loses the optimistic race;
// the survey-id uniqueness constraint turns the replay into a no-op.
func (s *Service) MaterializeFromVerification(ctx context.Context, c *verificationmodels.PropertyVerification) error {
	if c.Status != verificationmodels.StatusVerified {
		return dErrors.New(dErrors.CodeInvalidTransition, "only verified cases materialize properties")
	}
	property := &models.Property{
		SurveyID:       c.SurveyID,
		Owner:          c.Owner,
		VerificationID: c.ID,
		ForSale:        true,
		PriceInWei:     "0",
		Status:         models.ListingActive,
		Location:       c.Details.Location,
		Area:           c.Details.Area,
		AreaUnit:       c.Details.AreaUnit,
		PropertyType:   c.Details.PropertyType,
		MaterializedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, property); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "property already materialized",
				"survey_id", c.SurveyID.String(),
			)
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "create property projection")
	}
	return nil
}

// GetBySurveyID returns the materialized property for a survey.
func (s *Service) GetBySurveyID(ctx context.Context, surveyID id.SurveyID) (*models.Property, error) {
	property, err := s.store.FindBySurveyID(ctx, surveyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "property not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "find property")
	}
	return property, nil
}

// ListForOwner returns every property materialized for an owner.
func (s *Service) ListForOwner(ctx context.Context, owner id.WalletAddress) ([]*models.Property, error) {
	properties, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "list properties for owner")
	}
	return properties, nil
}

// ListForSale returns all properties currently listed for sale.
func (s *Service) ListForSale(ctx context.Context) ([]*models.Property, error) {
	properties, err := s.store.ListForSale(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "list properties for sale")
	}
	return properties, nil
}
