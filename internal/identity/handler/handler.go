// Package handler exposes identity and KYC endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landregistry/internal/identity/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

// Service defines the identity operations the handler needs.
type Service interface {
	EnsureUser(ctx context.Context, wallet id.WalletAddress) (*models.User, error)
	GetUser(ctx context.Context, wallet id.WalletAddress) (*models.User, error)
	SetRole(ctx context.Context, actor id.Actor, target id.WalletAddress, role id.Role) (*models.User, error)
	RecordKYCDocuments(ctx context.Context, actor id.Actor, aadhaarHash, panHash string) (*models.User, error)
	SetKYCStatus(ctx context.Context, actor id.Actor, owner id.WalletAddress, verified bool, rejectionReason string) (*models.User, error)
	UpdateProfile(ctx context.Context, actor id.Actor, profile models.Profile) (*models.User, error)
}

// Handler wires identity endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router. All routes assume the
// auth middleware already ran.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/session", h.HandleSession)
	r.Get("/users/me", h.HandleGetMe)
	r.Put("/users/me/profile", h.HandleUpdateProfile)
	r.Post("/users/me/kyc-documents", h.HandleRecordKYCDocuments)
	r.Put("/admin/users/{wallet}/role", h.HandleSetRole)
	r.Put("/admin/users/{wallet}/kyc", h.HandleSetKYCStatus)
}

// HandleSession handles POST /auth/session: the post-login touchpoint that
// creates the user record on first visit.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	user, err := h.service.EnsureUser(ctx, actor.Wallet)
	if err != nil {
		h.logger.ErrorContext(ctx, "session bootstrap failed",
			"request_id", requestcontext.RequestID(ctx),
			"wallet", actor.Wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleGetMe handles GET /users/me.
func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	user, err := h.service.GetUser(ctx, actor.Wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleUpdateProfile handles PUT /users/me/profile.
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.Profile](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.UpdateProfile(ctx, actor, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// KYCDocumentsRequest carries the content hashes of the identity documents.
type KYCDocumentsRequest struct {
	AadhaarHash string `json:"aadhaar_hash"`
	PANHash     string `json:"pan_hash"`
}

// HandleRecordKYCDocuments handles POST /users/me/kyc-documents.
func (h *Handler) HandleRecordKYCDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[KYCDocumentsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.RecordKYCDocuments(ctx, actor, req.AadhaarHash, req.PANHash)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// SetRoleRequest names the role to grant.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// HandleSetRole handles PUT /admin/users/{wallet}/role.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	target, err := id.ParseWalletAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	role, err := id.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.SetRole(ctx, actor, target, role)
	if err != nil {
		h.logger.ErrorContext(ctx, "role change failed",
			"request_id", requestID,
			"target", target,
			"role", role,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// SetKYCStatusRequest carries the admin decision on recorded documents.
type SetKYCStatusRequest struct {
	Verified        bool   `json:"verified"`
	RejectionReason string `json:"rejection_reason"`
}

// HandleSetKYCStatus handles PUT /admin/users/{wallet}/kyc.
func (h *Handler) HandleSetKYCStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	owner, err := id.ParseWalletAddress(chi.URLParam(r, "wallet"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetKYCStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	user, err := h.service.SetKYCStatus(ctx, actor, owner, req.Verified, req.RejectionReason)
	if err != nil {
		h.logger.ErrorContext(ctx, "kyc decision failed",
			"request_id", requestID,
			"owner", owner,
			"verified", req.Verified,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}
