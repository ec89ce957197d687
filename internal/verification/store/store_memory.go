package store

import (
	"context"
	"sync"

	"landregistry/internal/verification/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

// InMemory keeps verification cases in process memory. It enforces the same
// invariants as the PostgreSQL store: one open case per survey ID and
// version-checked saves. Doubles as the test fake for the engine.
type InMemory struct {
	mu    sync.RWMutex
	cases map[id.VerificationID]*models.PropertyVerification
	// open tracks the currently open case per survey ID.
	open map[id.SurveyID]id.VerificationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		cases: make(map[id.VerificationID]*models.PropertyVerification),
		open:  make(map[id.SurveyID]id.VerificationID),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.PropertyVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cases[c.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	if _, ok := s.open[c.SurveyID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.cases[c.ID] = c.Clone()
	if !c.Status.IsTerminal() {
		s.open[c.SurveyID] = c.ID
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.VerificationID) (*models.PropertyVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.cases[caseID]; ok {
		return c.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindOpenBySurveyID(_ context.Context, surveyID id.SurveyID) (*models.PropertyVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	caseID, ok := s.open[surveyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.cases[caseID].Clone(), nil
}

// Save persists the aggregate with an optimistic version check: the stored
// version must equal the caller's read version. On success the stored
// version increments, so a concurrent writer holding the same read fails
// with ErrStaleWrite and must re-read.
func (s *InMemory) Save(_ context.Context, c *models.PropertyVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cases[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != c.Version {
		return sentinel.ErrStaleWrite
	}
	saved := c.Clone()
	saved.Version++
	s.cases[c.ID] = saved
	c.Version = saved.Version
	if saved.Status.IsTerminal() {
		delete(s.open, saved.SurveyID)
	}
	return nil
}

// AppendDocument adds a document to the case's append-only document list.
// Not version-checked: appends commute and never conflict.
func (s *InMemory) AppendDocument(_ context.Context, caseID id.VerificationID, doc models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.Documents = append(stored.Documents, doc)
	return nil
}

// AppendTimeline adds a timeline entry. Append-only, never conflicts.
func (s *InMemory) AppendTimeline(_ context.Context, caseID id.VerificationID, entry models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cases[caseID]
	if !ok {
		return sentinel.ErrNotFound
	}
	stored.Timeline = append(stored.Timeline, entry)
	return nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.WalletAddress) ([]*models.PropertyVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PropertyVerification
	for _, c := range s.cases {
		if c.Owner == owner {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) ListByInspector(_ context.Context, inspector id.WalletAddress) ([]*models.PropertyVerification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.PropertyVerification
	for _, c := range s.cases {
		if c.Inspector == inspector {
			out = append(out, c.Clone())
		}
	}
	return out, nil
}
