package handler_test

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"landregistry/internal/docstore"
	identityservice "landregistry/internal/identity/service"
	identitystore "landregistry/internal/identity/store"
	registryservice "landregistry/internal/registry/service"
	registrystore "landregistry/internal/registry/store"
	"landregistry/internal/verification/handler"
	"landregistry/internal/verification/models"
	verificationservice "landregistry/internal/verification/service"
	verificationstore "landregistry/internal/verification/store"
	id "landregistry/pkg/domain"
	auditmem "landregistry/pkg/platform/audit/store/memory"
	"landregistry/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	identity *identityservice.Service
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	s.identity = identityservice.New(identitystore.NewInMemory(), auditmem.New(), logger)
	engine := verificationservice.NewEngine(
		verificationstore.NewInMemory(),
		s.identity,
		docstore.NewInMemory(),
		registryservice.New(registrystore.NewInMemory(), logger),
		logger,
	)

	r := chi.NewRouter()
	handler.New(engine, logger).Register(r)
	s.router = r

	// A verified owner ready to submit.
	ctx := s.T().Context()
	_, err := s.identity.EnsureUser(ctx, "0xowner")
	s.Require().NoError(err)
	_, err = s.identity.RecordKYCDocuments(ctx, id.Actor{Wallet: "0xowner", Role: id.RoleOwner}, "a-hash", "p-hash")
	s.Require().NoError(err)
	_, err = s.identity.EnsureUser(ctx, "0xadmin")
	s.Require().NoError(err)
	_, err = s.identity.SetKYCStatus(ctx, id.Actor{Wallet: "0xadmin", Role: id.RoleAdmin}, "0xowner", true, "")
	s.Require().NoError(err)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func submitBody(surveyID string) handler.SubmitRequest {
	return handler.SubmitRequest{
		SurveyID: surveyID,
		Details:  models.PropertyDetails{Location: "Pune", Area: 1200, AreaUnit: "sqft", PropertyType: "residential"},
		Documents: []handler.DocumentUploadRequest{
			{Type: "property_deed", Filename: "deed.pdf", ContentBase64: base64.StdEncoding.EncodeToString([]byte("deed"))},
			{Type: "tax_receipt", Filename: "tax.pdf", ContentBase64: base64.StdEncoding.EncodeToString([]byte("tax"))},
		},
	}
}

func (s *HandlerSuite) TestSubmit() {
	s.Run("creates a pending case", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", submitBody("SUR-1"))
		req = testutil.WithActor(req, "0xowner", id.RoleOwner)

		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)

		c := testutil.UnmarshalResponse[models.PropertyVerification](s.T(), rr)
		s.Equal(models.StatusPending, c.Status)
		s.Equal(id.SurveyID("SUR-1"), c.SurveyID)
		s.Len(c.Documents, 2)
	})

	s.Run("duplicate open case maps to 409", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", submitBody("SUR-2"))
		req = testutil.WithActor(req, "0xowner", id.RoleOwner)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusCreated)

		req = testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", submitBody("SUR-2"))
		req = testutil.WithActor(req, "0xowner", id.RoleOwner)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req),
			http.StatusConflict, "duplicate_active_case")
	})

	s.Run("missing actor maps to 401", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", submitBody("SUR-3"))
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req),
			http.StatusUnauthorized, "unauthorized")
	})

	s.Run("unverified wallet maps to 403", func() {
		_, err := s.identity.EnsureUser(s.T().Context(), "0xstranger")
		s.Require().NoError(err)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", submitBody("SUR-4"))
		req = testutil.WithActor(req, "0xstranger", id.RoleOwner)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req),
			http.StatusForbidden, "kyc_not_verified")
	})
}

func (s *HandlerSuite) TestMalformedBody() {
	req := testutil.NewRequestWithBody(s.T(), http.MethodPost, "/verifications", "{not json")
	req = testutil.WithActor(req, "0xowner", id.RoleOwner)
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req),
		http.StatusBadRequest, "bad_request")
}

func (s *HandlerSuite) TestGetCase() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", submitBody("SUR-10"))
	req = testutil.WithActor(req, "0xowner", id.RoleOwner)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.PropertyVerification](s.T(), rr)

	get := testutil.NewRequest(s.T(), http.MethodGet, "/verifications/"+created.ID.String())
	get = testutil.WithActor(get, "0xowner", id.RoleOwner)
	rr = testutil.DoRequest(s.router, get)
	testutil.AssertStatusOK(s.T(), rr)

	found := testutil.UnmarshalResponse[models.PropertyVerification](s.T(), rr)
	s.Equal(created.ID, found.ID)

	get = testutil.NewRequest(s.T(), http.MethodGet, "/verifications/not-a-uuid")
	get = testutil.WithActor(get, "0xowner", id.RoleOwner)
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, get),
		http.StatusBadRequest, "invalid_input")
}

func (s *HandlerSuite) TestAssignInspector() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/verifications", submitBody("SUR-20"))
	req = testutil.WithActor(req, "0xowner", id.RoleOwner)
	rr := testutil.DoRequest(s.router, req)
	created := testutil.UnmarshalResponse[models.PropertyVerification](s.T(), rr)

	ctx := s.T().Context()
	_, err := s.identity.EnsureUser(ctx, "0xinspector")
	s.Require().NoError(err)
	_, err = s.identity.SetRole(ctx, id.Actor{Wallet: "0xadmin", Role: id.RoleAdmin}, "0xinspector", id.RoleInspector)
	s.Require().NoError(err)

	assign := testutil.NewJSONRequest(s.T(), http.MethodPut,
		"/admin/verifications/"+created.ID.String()+"/inspector",
		handler.AssignInspectorRequest{Inspector: "0xinspector"})
	assign = testutil.WithActor(assign, "0xadmin", id.RoleAdmin)
	rr = testutil.DoRequest(s.router, assign)
	testutil.AssertStatusOK(s.T(), rr)

	updated := testutil.UnmarshalResponse[models.PropertyVerification](s.T(), rr)
	s.Equal(models.StatusAssigned, updated.Status)
	s.Equal(id.WalletAddress("0xinspector"), updated.Inspector)

	// An owner hitting the admin route is rejected by the engine.
	assign = testutil.NewJSONRequest(s.T(), http.MethodPut,
		"/admin/verifications/"+created.ID.String()+"/inspector",
		handler.AssignInspectorRequest{Inspector: "0xinspector"})
	assign = testutil.WithActor(assign, "0xowner", id.RoleOwner)
	testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, assign),
		http.StatusUnauthorized, "unauthorized")
}
