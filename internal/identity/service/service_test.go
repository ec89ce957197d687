package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"landregistry/internal/identity/store"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	audit "landregistry/pkg/platform/audit"
	auditmem "landregistry/pkg/platform/audit/store/memory"
	"landregistry/pkg/platform/middleware/metadata"
	"landregistry/pkg/requestcontext"
)

type IdentityServiceSuite struct {
	suite.Suite
	svc   *Service
	audit *auditmem.Store
	ctx   context.Context
}

func (s *IdentityServiceSuite) SetupTest() {
	s.audit = auditmem.New()
	s.svc = New(store.NewInMemory(), s.audit, slog.New(slog.DiscardHandler))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) admin() id.Actor {
	return id.Actor{Wallet: "0xadmin", Role: id.RoleAdmin}
}

func (s *IdentityServiceSuite) owner(wallet string) id.Actor {
	return id.Actor{Wallet: id.WalletAddress(wallet), Role: id.RoleOwner}
}

func (s *IdentityServiceSuite) TestEnsureUser() {
	s.Run("creates user on first login with owner role", func() {
		user, err := s.svc.EnsureUser(s.ctx, "0xnew")
		s.Require().NoError(err)
		s.Equal(id.RoleOwner, user.Role)
		s.False(user.KYC.Verified)
	})

	s.Run("second login returns existing record", func() {
		first, err := s.svc.EnsureUser(s.ctx, "0xrepeat")
		s.Require().NoError(err)

		again, err := s.svc.EnsureUser(s.ctx, "0xrepeat")
		s.Require().NoError(err)
		s.Equal(first.CreatedAt, again.CreatedAt)
	})

	s.Run("emits user_created exactly once", func() {
		ctx := metadata.WithClientMetadata(s.ctx, "203.0.113.7", "landregistry-test")
		_, err := s.svc.EnsureUser(ctx, "0xonce")
		s.Require().NoError(err)
		_, err = s.svc.EnsureUser(ctx, "0xonce")
		s.Require().NoError(err)

		created := 0
		for _, e := range s.audit.Events() {
			if e.Action == audit.ActionUserCreated && e.Subject == "0xonce" {
				created++
				s.Equal("203.0.113.7", e.SourceIP)
			}
		}
		s.Equal(1, created)
	})
}

func (s *IdentityServiceSuite) TestSetRole() {
	s.Run("admin promotes a user to inspector", func() {
		_, err := s.svc.EnsureUser(s.ctx, "0xfuture-inspector")
		s.Require().NoError(err)

		user, err := s.svc.SetRole(s.ctx, s.admin(), "0xfuture-inspector", id.RoleInspector)
		s.Require().NoError(err)
		s.Equal(id.RoleInspector, user.Role)
	})

	s.Run("non-admin is rejected regardless of target", func() {
		_, err := s.svc.EnsureUser(s.ctx, "0xvictim")
		s.Require().NoError(err)

		_, err = s.svc.SetRole(s.ctx, s.owner("0xsneaky"), "0xvictim", id.RoleAdmin)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("unknown target fails not found", func() {
		_, err := s.svc.SetRole(s.ctx, s.admin(), "0xghost", id.RoleInspector)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *IdentityServiceSuite) TestKYCFlow() {
	s.Run("verify requires recorded documents", func() {
		_, err := s.svc.EnsureUser(s.ctx, "0xdocless")
		s.Require().NoError(err)

		_, err = s.svc.SetKYCStatus(s.ctx, s.admin(), "0xdocless", true, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("record then verify sets the gate flag", func() {
		_, err := s.svc.EnsureUser(s.ctx, "0xdiligent")
		s.Require().NoError(err)

		_, err = s.svc.RecordKYCDocuments(s.ctx, s.owner("0xdiligent"), "aadhaar-hash", "pan-hash")
		s.Require().NoError(err)

		_, err = s.svc.SetKYCStatus(s.ctx, s.admin(), "0xdiligent", true, "")
		s.Require().NoError(err)

		verified, err := s.svc.IsKYCVerified(s.ctx, "0xdiligent")
		s.Require().NoError(err)
		s.True(verified)
	})

	s.Run("rejection requires a reason", func() {
		_, err := s.svc.EnsureUser(s.ctx, "0xreasonless")
		s.Require().NoError(err)

		_, err = s.svc.SetKYCStatus(s.ctx, s.admin(), "0xreasonless", false, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("revocation is audited distinctly from initial rejection", func() {
		_, err := s.svc.EnsureUser(s.ctx, "0xrevoked")
		s.Require().NoError(err)
		_, err = s.svc.RecordKYCDocuments(s.ctx, s.owner("0xrevoked"), "a", "p")
		s.Require().NoError(err)
		_, err = s.svc.SetKYCStatus(s.ctx, s.admin(), "0xrevoked", true, "")
		s.Require().NoError(err)

		_, err = s.svc.SetKYCStatus(s.ctx, s.admin(), "0xrevoked", false, "documents expired")
		s.Require().NoError(err)

		var last audit.Action
		for _, e := range s.audit.Events() {
			if e.Subject == "0xrevoked" {
				last = e.Action
			}
		}
		s.Equal(audit.ActionKYCRevoked, last)
	})

	s.Run("re-upload resets a prior decision", func() {
		_, err := s.svc.EnsureUser(s.ctx, "0xretry")
		s.Require().NoError(err)
		_, err = s.svc.RecordKYCDocuments(s.ctx, s.owner("0xretry"), "a", "p")
		s.Require().NoError(err)
		_, err = s.svc.SetKYCStatus(s.ctx, s.admin(), "0xretry", true, "")
		s.Require().NoError(err)

		user, err := s.svc.RecordKYCDocuments(s.ctx, s.owner("0xretry"), "a2", "p2")
		s.Require().NoError(err)
		s.False(user.KYC.Verified)
		s.Empty(user.KYC.RejectionReason)
	})

	s.Run("unknown wallet is simply unverified", func() {
		verified, err := s.svc.IsKYCVerified(s.ctx, "0xnobody")
		s.Require().NoError(err)
		s.False(verified)
	})
}
