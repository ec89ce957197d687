// Package handler exposes the verification workflow over HTTP. It decodes
// and validates transport input, then delegates every decision to the
// workflow engine.
package handler

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"landregistry/internal/verification/models"
	"landregistry/internal/verification/service"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/requestcontext"
)

// Engine defines the workflow operations the handler needs.
type Engine interface {
	Submit(ctx context.Context, actor id.Actor, surveyID id.SurveyID, details models.PropertyDetails, uploads []service.DocumentUpload) (*models.PropertyVerification, error)
	AssignInspector(ctx context.Context, actor id.Actor, caseID id.VerificationID, inspector id.WalletAddress) (*models.PropertyVerification, error)
	ScheduleVisit(ctx context.Context, actor id.Actor, caseID id.VerificationID, date *time.Time, notes string) (*models.PropertyVerification, error)
	SubmitReport(ctx context.Context, actor id.Actor, caseID id.VerificationID, input service.ReportInput) (*models.PropertyVerification, error)
	SetStatus(ctx context.Context, actor id.Actor, caseID id.VerificationID, newStatus models.Status, remarks string) (*models.PropertyVerification, error)
	AddDocument(ctx context.Context, actor id.Actor, caseID id.VerificationID, upload service.DocumentUpload) (*models.Document, error)
	GetCase(ctx context.Context, caseID id.VerificationID) (*models.PropertyVerification, error)
	ListCasesForOwner(ctx context.Context, owner id.WalletAddress) ([]*models.PropertyVerification, error)
	ListCasesForInspector(ctx context.Context, inspector id.WalletAddress) ([]*models.PropertyVerification, error)
}

// Handler wires verification endpoints to the workflow engine.
type Handler struct {
	engine Engine
	logger *slog.Logger
}

func New(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts verification endpoints on the router. All routes assume
// the auth middleware already ran.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verifications", h.HandleSubmit)
	r.Get("/verifications/mine", h.HandleListMine)
	r.Get("/verifications/assigned", h.HandleListAssigned)
	r.Get("/verifications/{caseID}", h.HandleGetCase)
	r.Post("/verifications/{caseID}/documents", h.HandleAddDocument)
	r.Post("/verifications/{caseID}/visit", h.HandleScheduleVisit)
	r.Post("/verifications/{caseID}/report", h.HandleSubmitReport)
	r.Put("/verifications/{caseID}/status", h.HandleSetStatus)
	r.Put("/admin/verifications/{caseID}/inspector", h.HandleAssignInspector)
}

// DocumentUploadRequest is one document in a submission.
type DocumentUploadRequest struct {
	Type          string `json:"type"`
	Filename      string `json:"filename"`
	ContentBase64 string `json:"content_base64"`
}

// SubmitRequest is the registration claim body.
type SubmitRequest struct {
	SurveyID  string                  `json:"survey_id"`
	Details   models.PropertyDetails  `json:"property_details"`
	Documents []DocumentUploadRequest `json:"documents"`
}

func decodeUpload(req DocumentUploadRequest) (service.DocumentUpload, error) {
	docType, err := models.ParseDocumentType(req.Type)
	if err != nil {
		return service.DocumentUpload{}, err
	}
	content, err := base64.StdEncoding.DecodeString(req.ContentBase64)
	if err != nil {
		return service.DocumentUpload{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "document content must be base64")
	}
	if len(content) == 0 {
		return service.DocumentUpload{}, dErrors.New(dErrors.CodeBadRequest, "document content is required")
	}
	return service.DocumentUpload{Type: docType, Filename: req.Filename, Content: content}, nil
}

// HandleSubmit handles POST /verifications.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	surveyID, err := id.ParseSurveyID(req.SurveyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	uploads := make([]service.DocumentUpload, 0, len(req.Documents))
	for _, d := range req.Documents {
		upload, err := decodeUpload(d)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		uploads = append(uploads, upload)
	}

	c, err := h.engine.Submit(ctx, actor, surveyID, req.Details, uploads)
	if err != nil {
		h.logger.ErrorContext(ctx, "submission failed",
			"request_id", requestID,
			"survey_id", surveyID,
			"owner", actor.Wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case submitted",
		"request_id", requestID,
		"case_id", c.ID,
		"survey_id", surveyID,
	)
	httputil.WriteJSON(w, http.StatusCreated, c)
}

// HandleGetCase handles GET /verifications/{caseID}.
func (h *Handler) HandleGetCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caseID, err := id.ParseVerificationID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.engine.GetCase(ctx, caseID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleListMine handles GET /verifications/mine.
func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	cases, err := h.engine.ListCasesForOwner(ctx, actor.Wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cases)
}

// HandleListAssigned handles GET /verifications/assigned.
func (h *Handler) HandleListAssigned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	cases, err := h.engine.ListCasesForInspector(ctx, actor.Wallet)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cases)
}

// AssignInspectorRequest names the inspector wallet.
type AssignInspectorRequest struct {
	Inspector string `json:"inspector_address"`
}

// HandleAssignInspector handles PUT /admin/verifications/{caseID}/inspector.
func (h *Handler) HandleAssignInspector(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	caseID, err := id.ParseVerificationID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[AssignInspectorRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	inspector, err := id.ParseWalletAddress(req.Inspector)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.engine.AssignInspector(ctx, actor, caseID, inspector)
	if err != nil {
		h.logger.ErrorContext(ctx, "inspector assignment failed",
			"request_id", requestID,
			"case_id", caseID,
			"inspector", inspector,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// ScheduleVisitRequest carries the optional visit date and notes.
type ScheduleVisitRequest struct {
	Date  *time.Time `json:"date,omitempty"`
	Notes string     `json:"notes"`
}

// HandleScheduleVisit handles POST /verifications/{caseID}/visit.
func (h *Handler) HandleScheduleVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	caseID, err := id.ParseVerificationID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[ScheduleVisitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	c, err := h.engine.ScheduleVisit(ctx, actor, caseID, req.Date, req.Notes)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// SubmitReportRequest is the inspection report body.
type SubmitReportRequest struct {
	Recommendation string    `json:"recommendation"`
	Notes          string    `json:"notes"`
	VisitDate      time.Time `json:"visit_date"`
	GPSLocation    string    `json:"gps_location"`
	ReportBase64   string    `json:"report_base64,omitempty"`
}

// HandleSubmitReport handles POST /verifications/{caseID}/report.
func (h *Handler) HandleSubmitReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	caseID, err := id.ParseVerificationID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SubmitReportRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	var reportDoc []byte
	if req.ReportBase64 != "" {
		reportDoc, err = base64.StdEncoding.DecodeString(req.ReportBase64)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "report document must be base64"))
			return
		}
	}

	c, err := h.engine.SubmitReport(ctx, actor, caseID, service.ReportInput{
		Recommendation: req.Recommendation,
		Notes:          req.Notes,
		VisitDate:      req.VisitDate,
		GPSLocation:    req.GPSLocation,
		ReportDocument: reportDoc,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "report submission failed",
			"request_id", requestID,
			"case_id", caseID,
			"inspector", actor.Wallet,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

// SetStatusRequest is the finalization body.
type SetStatusRequest struct {
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

// HandleSetStatus handles PUT /verifications/{caseID}/status.
func (h *Handler) HandleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	caseID, err := id.ParseVerificationID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[SetStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	c, err := h.engine.SetStatus(ctx, actor, caseID, status, req.Remarks)
	if err != nil {
		h.logger.ErrorContext(ctx, "status change failed",
			"request_id", requestID,
			"case_id", caseID,
			"target_status", status,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case status set",
		"request_id", requestID,
		"case_id", caseID,
		"status", status,
	)
	httputil.WriteJSON(w, http.StatusOK, c)
}

// HandleAddDocument handles POST /verifications/{caseID}/documents.
func (h *Handler) HandleAddDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	actor, ok := requestcontext.DomainActor(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	caseID, err := id.ParseVerificationID(chi.URLParam(r, "caseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[DocumentUploadRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	upload, err := decodeUpload(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	doc, err := h.engine.AddDocument(ctx, actor, caseID, upload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}
