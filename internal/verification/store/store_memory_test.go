package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landregistry/internal/verification/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type CaseStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *CaseStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestCaseStoreSuite(t *testing.T) {
	suite.Run(t, new(CaseStoreSuite))
}

func (s *CaseStoreSuite) newCase(surveyID string) *models.PropertyVerification {
	return models.NewCase(
		id.NewVerificationID(),
		id.SurveyID(surveyID),
		"0xowner",
		models.PropertyDetails{Location: "Pune", Area: 1200, AreaUnit: "sqft", PropertyType: "residential"},
		[]models.Document{
			{ID: id.NewDocumentID(), Type: models.DocumentPropertyDeed, ContentHash: "h1", Filename: "deed.pdf", UploadedAt: time.Now()},
			{ID: id.NewDocumentID(), Type: models.DocumentTaxReceipt, ContentHash: "h2", Filename: "tax.pdf", UploadedAt: time.Now()},
		},
		time.Now(),
	)
}

func (s *CaseStoreSuite) TestOpenCaseUniqueness() {
	s.Run("rejects second open case for same survey", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newCase("SUR-1")))

		err := s.store.Create(s.ctx, s.newCase("SUR-1"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyExists)
	})

	s.Run("allows new case after previous one resolved", func() {
		first := s.newCase("SUR-2")
		s.Require().NoError(s.store.Create(s.ctx, first))

		first.ApplyTransition(models.StatusRejected, time.Now())
		s.Require().NoError(s.store.Save(s.ctx, first))

		s.Require().NoError(s.store.Create(s.ctx, s.newCase("SUR-2")))
	})

	s.Run("finds the open case by survey id", func() {
		c := s.newCase("SUR-3")
		s.Require().NoError(s.store.Create(s.ctx, c))

		found, err := s.store.FindOpenBySurveyID(s.ctx, "SUR-3")
		s.Require().NoError(err)
		s.Equal(c.ID, found.ID)
	})

	s.Run("resolved case is not returned as open", func() {
		c := s.newCase("SUR-4")
		s.Require().NoError(s.store.Create(s.ctx, c))
		c.ApplyTransition(models.StatusVerified, time.Now())
		s.Require().NoError(s.store.Save(s.ctx, c))

		_, err := s.store.FindOpenBySurveyID(s.ctx, "SUR-4")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CaseStoreSuite) TestOptimisticConcurrency() {
	s.Run("save bumps version", func() {
		c := s.newCase("SUR-10")
		s.Require().NoError(s.store.Create(s.ctx, c))
		s.Equal(int64(1), c.Version)

		c.ApplyTransition(models.StatusAssigned, time.Now())
		s.Require().NoError(s.store.Save(s.ctx, c))
		s.Equal(int64(2), c.Version)
	})

	s.Run("stale reader loses", func() {
		c := s.newCase("SUR-11")
		s.Require().NoError(s.store.Create(s.ctx, c))

		readerA, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		readerB, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)

		readerA.Inspector = "0xinspector-a"
		readerA.ApplyTransition(models.StatusAssigned, time.Now())
		s.Require().NoError(s.store.Save(s.ctx, readerA))

		readerB.Inspector = "0xinspector-b"
		readerB.ApplyTransition(models.StatusAssigned, time.Now())
		err = s.store.Save(s.ctx, readerB)
		s.Require().ErrorIs(err, sentinel.ErrStaleWrite)

		// The winning assignment is intact.
		current, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(id.WalletAddress("0xinspector-a"), current.Inspector)
	})

	s.Run("save of unknown case fails not found", func() {
		err := s.store.Save(s.ctx, s.newCase("SUR-12"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CaseStoreSuite) TestAppendOnlyOperations() {
	s.Run("documents accumulate", func() {
		c := s.newCase("SUR-20")
		s.Require().NoError(s.store.Create(s.ctx, c))

		doc := models.Document{ID: id.NewDocumentID(), Type: models.DocumentOther, ContentHash: "h3", Filename: "extra.pdf", UploadedAt: time.Now()}
		s.Require().NoError(s.store.AppendDocument(s.ctx, c.ID, doc))

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Len(found.Documents, 3)
	})

	s.Run("timeline never shrinks and keeps order", func() {
		c := s.newCase("SUR-21")
		c.AppendTimeline("submitted", models.NotificationInfo, time.Now())
		s.Require().NoError(s.store.Create(s.ctx, c))

		prev := 1
		for i, msg := range []string{"first", "second", "third"} {
			entry := models.Notification{Message: msg, Type: models.NotificationInfo, SentAt: time.Now().Add(time.Duration(i) * time.Second)}
			s.Require().NoError(s.store.AppendTimeline(s.ctx, c.ID, entry))

			found, err := s.store.FindByID(s.ctx, c.ID)
			s.Require().NoError(err)
			s.GreaterOrEqual(len(found.Timeline), prev)
			prev = len(found.Timeline)
		}

		found, err := s.store.FindByID(s.ctx, c.ID)
		s.Require().NoError(err)
		s.Equal("submitted", found.Timeline[0].Message)
		s.Equal("third", found.Timeline[3].Message)
	})

	s.Run("append to unknown case fails not found", func() {
		err := s.store.AppendTimeline(s.ctx, id.NewVerificationID(), models.Notification{Message: "x"})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *CaseStoreSuite) TestListings() {
	c1 := s.newCase("SUR-30")
	c2 := s.newCase("SUR-31")
	c2.Owner = "0xother"
	c2.Inspector = "0xinspector"
	s.Require().NoError(s.store.Create(s.ctx, c1))
	s.Require().NoError(s.store.Create(s.ctx, c2))

	mine, err := s.store.ListByOwner(s.ctx, "0xowner")
	s.Require().NoError(err)
	s.Len(mine, 1)

	assigned, err := s.store.ListByInspector(s.ctx, "0xinspector")
	s.Require().NoError(err)
	s.Len(assigned, 1)
	s.Equal(c2.ID, assigned[0].ID)
}
