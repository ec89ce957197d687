package store

import (
	"context"
	"sync"

	"landregistry/internal/registry/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

// InMemory keeps property projections in process memory. Doubles as the
// test fake.
type InMemory struct {
	mu         sync.RWMutex
	properties map[id.SurveyID]models.Property
}

func NewInMemory() *InMemory {
	return &InMemory{properties: make(map[id.SurveyID]models.Property)}
}

// Create inserts the projection. One property per survey ID, ever.
func (s *InMemory) Create(_ context.Context, p *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[p.SurveyID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.properties[p.SurveyID] = *p
	return nil
}

func (s *InMemory) FindBySurveyID(_ context.Context, surveyID id.SurveyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.properties[surveyID]; ok {
		copied := p
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.WalletAddress) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Property
	for _, p := range s.properties {
		if p.Owner == owner {
			copied := p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemory) ListForSale(_ context.Context) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Property
	for _, p := range s.properties {
		if p.ForSale && p.Status == models.ListingActive {
			copied := p
			out = append(out, &copied)
		}
	}
	return out, nil
}
