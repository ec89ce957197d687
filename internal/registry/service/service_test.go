package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landregistry/internal/registry/models"
	"landregistry/internal/registry/store"
	verificationmodels "landregistry/internal/verification/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/requestcontext"
)

type RegistrySuite struct {
	suite.Suite
	service *Service
	store   *store.InMemory
	ctx     context.Context
}

func (s *RegistrySuite) SetupTest() {
	s.store = store.NewInMemory()
	s.service = New(s.store, slog.New(slog.DiscardHandler))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func verifiedCase(surveyID string) *verificationmodels.PropertyVerification {
	return &verificationmodels.PropertyVerification{
		ID:       id.NewVerificationID(),
		SurveyID: id.SurveyID(surveyID),
		Owner:    "0xowner",
		Status:   verificationmodels.StatusVerified,
		Details: verificationmodels.PropertyDetails{
			Location:     "Nagpur",
			Area:         2400,
			AreaUnit:     "sqft",
			PropertyType: "agricultural",
		},
	}
}

func (s *RegistrySuite) TestMaterializeFromVerification() {
	s.Run("verified case yields an active for-sale listing", func() {
		s.Require().NoError(s.service.MaterializeFromVerification(s.ctx, verifiedCase("SUR-1")))

		p, err := s.service.GetBySurveyID(s.ctx, "SUR-1")
		s.Require().NoError(err)
		s.True(p.ForSale)
		s.Equal(models.ListingActive, p.Status)
		s.Equal("0", p.PriceInWei)
		s.Equal("Nagpur", p.Location)
		s.Equal(id.WalletAddress("0xowner"), p.Owner)
		s.Equal(requestcontext.Now(s.ctx), p.MaterializedAt)
	})

	s.Run("replay of the same survey is a harmless no-op", func() {
		c := verifiedCase("SUR-2")
		s.Require().NoError(s.service.MaterializeFromVerification(s.ctx, c))

		first, err := s.service.GetBySurveyID(s.ctx, "SUR-2")
		s.Require().NoError(err)

		s.Require().NoError(s.service.MaterializeFromVerification(s.ctx, c))

		second, err := s.service.GetBySurveyID(s.ctx, "SUR-2")
		s.Require().NoError(err)
		s.Equal(first.VerificationID, second.VerificationID)
	})

	s.Run("unresolved case cannot materialize", func() {
		c := verifiedCase("SUR-3")
		c.Status = verificationmodels.StatusInspected

		err := s.service.MaterializeFromVerification(s.ctx, c)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *RegistrySuite) TestQueries() {
	s.Require().NoError(s.service.MaterializeFromVerification(s.ctx, verifiedCase("SUR-10")))
	other := verifiedCase("SUR-11")
	other.Owner = "0xother"
	s.Require().NoError(s.service.MaterializeFromVerification(s.ctx, other))

	s.Run("unknown survey is not found", func() {
		_, err := s.service.GetBySurveyID(s.ctx, "SUR-404")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("list for owner filters by wallet", func() {
		mine, err := s.service.ListForOwner(s.ctx, "0xowner")
		s.Require().NoError(err)
		s.Require().Len(mine, 1)
		s.Equal(id.SurveyID("SUR-10"), mine[0].SurveyID)
	})

	s.Run("list for sale returns active listings only", func() {
		forSale, err := s.service.ListForSale(s.ctx)
		s.Require().NoError(err)
		s.Len(forSale, 2)
	})
}
