//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landregistry/internal/verification/models"
	"landregistry/internal/verification/store"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
	"landregistry/pkg/testutil/containers"
)

type PostgresCaseStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresCaseStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresCaseStoreSuite))
}

func (s *PostgresCaseStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresCaseStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "verification_cases")
	s.Require().NoError(err)
}

func newTestCase(surveyID string) *models.PropertyVerification {
	now := time.Now().UTC().Truncate(time.Microsecond)
	c := models.NewCase(
		id.NewVerificationID(),
		id.SurveyID(surveyID),
		"0xowner",
		models.PropertyDetails{Location: "Pune", Area: 1200, AreaUnit: "sqft", PropertyType: "residential"},
		[]models.Document{
			{ID: id.NewDocumentID(), Type: models.DocumentPropertyDeed, ContentHash: "h1", Filename: "deed.pdf", UploadedAt: now},
			{ID: id.NewDocumentID(), Type: models.DocumentTaxReceipt, ContentHash: "h2", Filename: "tax.pdf", UploadedAt: now},
		},
		now,
	)
	c.AppendTimeline("submitted", models.NotificationInfo, now)
	return c
}

// TestConcurrentOpenCaseUniqueness verifies that the partial unique index
// admits exactly one open case per survey under concurrent submissions.
func (s *PostgresCaseStoreSuite) TestConcurrentOpenCaseUniqueness() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, duplicateCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestCase("SUR-RACE"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyExists):
				duplicateCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), duplicateCount.Load())
}

func (s *PostgresCaseStoreSuite) TestOpenCaseReplacementAfterResolution() {
	ctx := context.Background()
	first := newTestCase("SUR-1")
	s.Require().NoError(s.store.Create(ctx, first))

	s.Require().Error(s.store.Create(ctx, newTestCase("SUR-1")))

	first.ApplyTransition(models.StatusRejected, time.Now().UTC())
	s.Require().NoError(s.store.Save(ctx, first))

	s.Require().NoError(s.store.Create(ctx, newTestCase("SUR-1")))
}

func (s *PostgresCaseStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := newTestCase("SUR-2")
	s.Require().NoError(s.store.Create(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.SurveyID, found.SurveyID)
	s.Equal(c.Owner, found.Owner)
	s.Equal(models.StatusPending, found.Status)
	s.Len(found.Documents, 2)
	s.Len(found.Timeline, 1)
	s.Nil(found.Report)
	s.Equal(int64(1), found.Version)

	open, err := s.store.FindOpenBySurveyID(ctx, "SUR-2")
	s.Require().NoError(err)
	s.Equal(c.ID, open.ID)
}

func (s *PostgresCaseStoreSuite) TestOptimisticConcurrency() {
	ctx := context.Background()
	c := newTestCase("SUR-3")
	s.Require().NoError(s.store.Create(ctx, c))

	readerA, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	readerB, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)

	readerA.Inspector = "0xinspector-a"
	readerA.ApplyTransition(models.StatusAssigned, time.Now().UTC())
	s.Require().NoError(s.store.Save(ctx, readerA))
	s.Equal(int64(2), readerA.Version)

	readerB.Inspector = "0xinspector-b"
	readerB.ApplyTransition(models.StatusAssigned, time.Now().UTC())
	err = s.store.Save(ctx, readerB)
	s.Require().ErrorIs(err, sentinel.ErrStaleWrite)

	current, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(id.WalletAddress("0xinspector-a"), current.Inspector)
}

func (s *PostgresCaseStoreSuite) TestJSONBAppends() {
	ctx := context.Background()
	c := newTestCase("SUR-4")
	s.Require().NoError(s.store.Create(ctx, c))

	doc := models.Document{
		ID: id.NewDocumentID(), Type: models.DocumentOther,
		ContentHash: "h3", Filename: "extra.pdf",
		UploadedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.AppendDocument(ctx, c.ID, doc))
	s.Require().NoError(s.store.AppendTimeline(ctx, c.ID, models.Notification{
		Message: "document added", Type: models.NotificationInfo,
		SentAt: time.Now().UTC().Truncate(time.Microsecond),
	}))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Len(found.Documents, 3)
	s.Len(found.Timeline, 2)
	s.Equal("document added", found.Timeline[1].Message)

	err = s.store.AppendDocument(ctx, id.NewVerificationID(), doc)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresCaseStoreSuite) TestListings() {
	ctx := context.Background()
	c1 := newTestCase("SUR-5")
	c2 := newTestCase("SUR-6")
	c2.Owner = "0xother"
	c2.Inspector = "0xinspector"
	s.Require().NoError(s.store.Create(ctx, c1))
	s.Require().NoError(s.store.Create(ctx, c2))

	mine, err := s.store.ListByOwner(ctx, "0xowner")
	s.Require().NoError(err)
	s.Len(mine, 1)

	assigned, err := s.store.ListByInspector(ctx, "0xinspector")
	s.Require().NoError(err)
	s.Require().Len(assigned, 1)
	s.Equal(c2.ID, assigned[0].ID)
}
