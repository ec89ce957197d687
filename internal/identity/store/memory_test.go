package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landregistry/internal/identity/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) newUser(wallet string) *models.User {
	return &models.User{
		Wallet:    id.WalletAddress(wallet),
		Role:      id.RoleOwner,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (s *UserStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds user by wallet", func() {
		user := s.newUser("0xaaa1")
		s.Require().NoError(s.store.Create(s.ctx, user))

		found, err := s.store.FindByWallet(s.ctx, user.Wallet)
		s.Require().NoError(err)
		s.Equal(user.Wallet, found.Wallet)
	})

	s.Run("returns ErrNotFound for unknown wallet", func() {
		_, err := s.store.FindByWallet(s.ctx, "0xunknown")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate wallet", func() {
		user := s.newUser("0xaaa2")
		s.Require().NoError(s.store.Create(s.ctx, user))

		err := s.store.Create(s.ctx, s.newUser("0xaaa2"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyExists)
	})
}

func (s *UserStoreSuite) TestUpdates() {
	s.Run("persists KYC changes", func() {
		user := s.newUser("0xbbb1")
		s.Require().NoError(s.store.Create(s.ctx, user))

		user.KYC.Verified = true
		s.Require().NoError(s.store.Update(s.ctx, user))

		found, err := s.store.FindByWallet(s.ctx, user.Wallet)
		s.Require().NoError(err)
		s.True(found.KYC.Verified)
	})

	s.Run("returns ErrNotFound for non-existent user", func() {
		err := s.store.Update(s.ctx, s.newUser("0xmissing"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned record is isolated from store state", func() {
		user := s.newUser("0xccc1")
		s.Require().NoError(s.store.Create(s.ctx, user))

		found, err := s.store.FindByWallet(s.ctx, user.Wallet)
		s.Require().NoError(err)
		found.Role = id.RoleAdmin

		again, err := s.store.FindByWallet(s.ctx, user.Wallet)
		s.Require().NoError(err)
		s.Equal(id.RoleOwner, again.Role)
	})
}
