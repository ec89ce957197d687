// Package handler exposes the read-only property registry endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landregistry/internal/registry/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

// Service defines the registry queries the handler needs.
type Service interface {
	GetBySurveyID(ctx context.Context, surveyID id.SurveyID) (*models.Property, error)
	ListForOwner(ctx context.Context, owner id.WalletAddress) ([]*models.Property, error)
	ListForSale(ctx context.Context) ([]*models.Property, error)
}

// Handler wires registry endpoints to the registry service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// HandleGetProperty handles GET /properties/{surveyID}.
func (h *Handler) HandleGetProperty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	surveyID, err := id.ParseSurveyID(chi.URLParam(r, "surveyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	property, err := h.service.GetBySurveyID(ctx, surveyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, property)
}

// HandleListMine handles GET /properties/mine.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	properties, err := h.service.ListForOwner(ctx, actor.Wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, properties)
}

// HandleListForSale handles GET /properties/for-sale.
func (h *Handler) HandleListForSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	properties, err := h.service.ListForSale(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, properties)
}
