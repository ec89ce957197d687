package store

import (
	"context"
	"sync"

	"landregistry/internal/identity/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

// InMemory keeps user records in process memory. Doubles as the test fake.
type InMemory struct {
	mu    sync.RWMutex
	users map[id.WalletAddress]models.User
}

func NewInMemory() *InMemory {
	return &InMemory{users: make(map[id.WalletAddress]models.User)}
}

func (s *InMemory) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Wallet]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.users[user.Wallet] = *user
	return nil
}

func (s *InMemory) FindByWallet(_ context.Context, wallet id.WalletAddress) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[wallet]; ok {
		copied := user
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Update(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Wallet]; !ok {
		return sentinel.ErrNotFound
	}
	s.users[user.Wallet] = *user
	return nil
}
