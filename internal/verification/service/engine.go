// Package service implements the verification workflow engine.
//
// The engine owns the authoritative state machine for PropertyVerification
// cases. It is stateless between calls: all state lives in the case store,
// so replicas can run in parallel. Operations on the same case serialize
// through optimistic concurrency; a losing writer re-reads and retries its
// full validate-then-write sequence a bounded number of times before
// surfacing Conflict.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"landregistry/internal/docstore"
	identitymodels "landregistry/internal/identity/models"
	"landregistry/internal/verification/metrics"
	"landregistry/internal/verification/models"
	id "landregistry/pkg/domain"
	dErrors "landregistry/pkg/domain-errors"
	audit "landregistry/pkg/platform/audit"
	"landregistry/pkg/platform/middleware/metadata"
	"landregistry/pkg/platform/sentinel"
	"landregistry/pkg/requestcontext"
)

// CaseStore is the persistence port for verification aggregates.
type CaseStore interface {
	Create(ctx context.Context, c *models.PropertyVerification) error
	FindByID(ctx context.Context, caseID id.VerificationID) (*models.PropertyVerification, error)
	Save(ctx context.Context, c *models.PropertyVerification) error
	AppendDocument(ctx context.Context, caseID id.VerificationID, doc models.Document) error
	AppendTimeline(ctx context.Context, caseID id.VerificationID, entry models.Notification) error
	ListByOwner(ctx context.Context, owner id.WalletAddress) ([]*models.PropertyVerification, error)
	ListByInspector(ctx context.Context, inspector id.WalletAddress) ([]*models.PropertyVerification, error)
}

// IdentityGate is the slice of the identity service the engine needs.
type IdentityGate interface {
	GetUser(ctx context.Context, wallet id.WalletAddress) (*identitymodels.User, error)
	IsKYCVerified(ctx context.Context, wallet id.WalletAddress) (bool, error)
}

// ProjectionSink receives the one-time Property materialization when a case
// resolves as verified.
type ProjectionSink interface {
	MaterializeFromVerification(ctx context.Context, c *models.PropertyVerification) error
}

// DocumentUpload is one supporting document passed to Submit/AddDocument.
// Content is uploaded to the content-addressed store before any case record
// references it, so a failed upload leaves no dangling Document.
type DocumentUpload struct {
	Type     models.DocumentType
	Filename string
	Content  []byte
}

// ReportInput is the inspector's report as submitted.
type ReportInput struct {
	Recommendation string
	Notes          string
	VisitDate      time.Time
	GPSLocation    string
	// ReportDocument optionally carries the report file itself.
	ReportDocument []byte
}

// Engine enforces transition legality, per-actor authorization, and side
// effects for every workflow operation.
type Engine struct {
	cases      CaseStore
	identity   IdentityGate
	documents  docstore.Store
	projection ProjectionSink
	auditInbox chan<- audit.Event
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	// saveAttempts bounds the optimistic-concurrency retry loop.
	saveAttempts int
}

// Option configures the Engine.
type Option func(*Engine)

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAuditInbox sets the channel case lifecycle events are emitted to.
// Emission is fail-open: a full channel drops the event with a log line.
func WithAuditInbox(inbox chan<- audit.Event) Option {
	return func(e *Engine) { e.auditInbox = inbox }
}

// WithSaveAttempts overrides the optimistic retry budget (default 3).
func WithSaveAttempts(attempts int) Option {
	return func(e *Engine) {
		if attempts > 0 {
			e.saveAttempts = attempts
		}
	}
}

// NewEngine wires the workflow engine.
func NewEngine(cases CaseStore, identity IdentityGate, documents docstore.Store, projection ProjectionSink, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		cases:        cases,
		identity:     identity,
		documents:    documents,
		projection:   projection,
		logger:       logger,
		tracer:       otel.Tracer("landregistry/verification"),
		saveAttempts: 3,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit creates a new case in pending state.
//
// Fails KYCNotVerified when the owner's KYC flag is false,
// MissingRequiredDocuments when the deed or tax receipt is absent, and
// DuplicateActiveCase when an unresolved case already exists for the survey.
func (e *Engine) Submit(ctx context.Context, actor id.Actor, surveyID id.SurveyID, details models.PropertyDetails, uploads []DocumentUpload) (*models.PropertyVerification, error) {
	ctx, span := e.tracer.Start(ctx, "verification.Submit")
	defer span.End()
	start := time.Now()
	defer e.metrics.ObserveOperation("submit", start)

	verified, err := e.identity.IsKYCVerified(ctx, actor.Wallet)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, dErrors.New(dErrors.CodeKYCNotVerified, "owner has not passed KYC verification")
	}

	docs, err := e.uploadDocuments(ctx, uploads)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	c := models.NewCase(id.NewVerificationID(), surveyID, actor.Wallet, details, docs, now)
	if !c.HasRequiredDocuments() {
		return nil, dErrors.New(dErrors.CodeMissingRequiredDocument, "submission requires property_deed and tax_receipt documents")
	}
	c.AppendTimeline("submitted", models.NotificationInfo, now)

	if err := e.cases.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyExists) {
			return nil, dErrors.New(dErrors.CodeDuplicateActiveCase, "an unresolved case already exists for survey "+surveyID.String())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "create case")
	}

	e.metrics.IncrementSubmitted()
	e.emit(ctx, audit.Event{
		Action:  audit.ActionCaseSubmitted,
		Actor:   actor.Wallet,
		Subject: actor.Wallet,
		CaseID:  c.ID.String(),
	})
	return c, nil
}

// AssignInspector moves a pending case to assigned. Admin only; the target
// wallet must hold the inspector role.
func (e *Engine) AssignInspector(ctx context.Context, actor id.Actor, caseID id.VerificationID, inspector id.WalletAddress) (*models.PropertyVerification, error) {
	ctx, span := e.tracer.Start(ctx, "verification.AssignInspector")
	defer span.End()
	start := time.Now()
	defer e.metrics.ObserveOperation("assign_inspector", start)

	if !actor.IsAdmin() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only admins may assign inspectors")
	}
	target, err := e.identity.GetUser(ctx, inspector)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.New(dErrors.CodeUnknownInspector, "target wallet does not hold the inspector role")
		}
		return nil, err
	}
	if target.Role != id.RoleInspector {
		return nil, dErrors.New(dErrors.CodeUnknownInspector, "target wallet does not hold the inspector role")
	}

	c, err := e.updateCase(ctx, caseID, func(c *models.PropertyVerification) error {
		if c.IsClosed() {
			return dErrors.New(dErrors.CodeCaseClosed, "case is permanently closed")
		}
		if !models.CanTransition(c.Status, models.StatusAssigned, actor.Role) {
			return dErrors.New(dErrors.CodeInvalidTransition, "inspector can only be assigned to a pending case")
		}
		now := requestcontext.Now(ctx)
		c.Inspector = inspector
		c.ApplyTransition(models.StatusAssigned, now)
		c.AppendTimeline("inspector assigned: "+inspector.String(), models.NotificationInfo, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.RecordTransition(string(models.StatusAssigned))
	e.emit(ctx, audit.Event{
		Action:  audit.ActionInspectorAssigned,
		Actor:   actor.Wallet,
		Subject: inspector,
		CaseID:  caseID.String(),
	})
	return c, nil
}

// ScheduleVisit records an informational inspection_scheduled transition.
// It never blocks later steps: a report can be filed without it.
func (e *Engine) ScheduleVisit(ctx context.Context, actor id.Actor, caseID id.VerificationID, date *time.Time, notes string) (*models.PropertyVerification, error) {
	ctx, span := e.tracer.Start(ctx, "verification.ScheduleVisit")
	defer span.End()
	start := time.Now()
	defer e.metrics.ObserveOperation("schedule_visit", start)

	c, err := e.updateCase(ctx, caseID, func(c *models.PropertyVerification) error {
		if c.IsClosed() {
			return dErrors.New(dErrors.CodeCaseClosed, "case is permanently closed")
		}
		if c.Inspector == "" || c.Inspector != actor.Wallet {
			return dErrors.New(dErrors.CodeNotAssignedInspector, "caller is not the assigned inspector")
		}
		if !models.CanTransition(c.Status, models.StatusInspectionScheduled, actor.Role) {
			return dErrors.New(dErrors.CodeInvalidTransition, "visit can only be scheduled before inspection")
		}
		now := requestcontext.Now(ctx)
		message := "inspection visit scheduled"
		if date != nil {
			message += " for " + date.Format("2006-01-02")
		}
		if notes != "" {
			message += ": " + notes
		}
		c.ApplyTransition(models.StatusInspectionScheduled, now)
		c.AppendTimeline(message, models.NotificationInfo, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.RecordTransition(string(models.StatusInspectionScheduled))
	e.emit(ctx, audit.Event{
		Action: audit.ActionVisitScheduled,
		Actor:  actor.Wallet,
		CaseID: caseID.String(),
	})
	return c, nil
}

// SubmitReport files the one immutable inspection report and advances the
// case to inspected.
func (e *Engine) SubmitReport(ctx context.Context, actor id.Actor, caseID id.VerificationID, input ReportInput) (*models.PropertyVerification, error) {
	ctx, span := e.tracer.Start(ctx, "verification.SubmitReport")
	defer span.End()
	start := time.Now()
	defer e.metrics.ObserveOperation("submit_report", start)

	if input.Recommendation != models.RecommendationApprove && input.Recommendation != models.RecommendationReject {
		return nil, dErrors.New(dErrors.CodeBadRequest, "recommendation must be approve or reject")
	}

	// Upload the report file before touching the aggregate so a failed
	// upload leaves no dangling reference.
	var reportHash string
	if len(input.ReportDocument) > 0 {
		var err error
		reportHash, err = e.documents.Put(ctx, input.ReportDocument)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "upload report document")
		}
	}

	c, err := e.updateCase(ctx, caseID, func(c *models.PropertyVerification) error {
		if c.IsClosed() {
			return dErrors.New(dErrors.CodeCaseClosed, "case is permanently closed")
		}
		if c.Inspector == "" || c.Inspector != actor.Wallet {
			return dErrors.New(dErrors.CodeNotAssignedInspector, "caller is not the assigned inspector")
		}
		if c.Report != nil {
			return dErrors.New(dErrors.CodeReportAlreadySubmitted, "an inspection report was already filed")
		}
		if !models.CanTransition(c.Status, models.StatusInspected, actor.Role) {
			return dErrors.New(dErrors.CodeInvalidTransition, "report cannot be filed in status "+string(c.Status))
		}
		now := requestcontext.Now(ctx)
		c.Report = &models.InspectionReport{
			Recommendation: input.Recommendation,
			Notes:          input.Notes,
			VisitDate:      input.VisitDate,
			GPSLocation:    input.GPSLocation,
			ReportDocument: reportHash,
			SubmittedAt:    now,
			SubmittedBy:    actor.Wallet,
		}
		c.ApplyTransition(models.StatusInspected, now)
		c.AppendTimeline("inspection report filed: "+input.Recommendation, models.NotificationInfo, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.RecordTransition(string(models.StatusInspected))
	e.emit(ctx, audit.Event{
		Action: audit.ActionReportSubmitted,
		Actor:  actor.Wallet,
		CaseID: caseID.String(),
		Reason: input.Recommendation,
	})
	return c, nil
}

// SetStatus is the authoritative finalization operation.
//
// Admins may target {pending, verified, rejected}; inspectors may target
// {pending, inspected, rejected} on cases assigned to them. Remarks are
// mandatory and recorded verbatim. Target verified materializes the
// Property projection and permanently closes the case; target rejected
// records the remarks as rejection reason and closes the case. Any call on
// a closed case fails CaseClosed, including re-setting the resolved status.
func (e *Engine) SetStatus(ctx context.Context, actor id.Actor, caseID id.VerificationID, newStatus models.Status, remarks string) (*models.PropertyVerification, error) {
	ctx, span := e.tracer.Start(ctx, "verification.SetStatus")
	defer span.End()
	start := time.Now()
	defer e.metrics.ObserveOperation("set_status", start)

	if remarks == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "remarks are required")
	}
	if !models.RoleMayTarget(actor.Role, newStatus) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "role "+string(actor.Role)+" may not set status "+string(newStatus))
	}

	c, err := e.updateCase(ctx, caseID, func(c *models.PropertyVerification) error {
		if c.IsClosed() {
			return dErrors.New(dErrors.CodeCaseClosed, "case is permanently closed")
		}
		if actor.IsInspector() && c.Inspector != actor.Wallet {
			return dErrors.New(dErrors.CodeNotAssignedInspector, "caller is not the assigned inspector")
		}
		if !models.CanTransition(c.Status, newStatus, actor.Role) {
			return dErrors.New(dErrors.CodeInvalidTransition, "cannot move case from "+string(c.Status)+" to "+string(newStatus))
		}
		now := requestcontext.Now(ctx)
		kind := models.NotificationInfo
		switch newStatus {
		case models.StatusVerified:
			kind = models.NotificationSuccess
		case models.StatusRejected:
			kind = models.NotificationError
			c.RejectionReason = remarks
		case models.StatusPending:
			kind = models.NotificationWarning
		}
		c.ApplyTransition(newStatus, now)
		c.AppendTimeline("status set to "+string(newStatus)+": "+remarks, kind, now)
		if newStatus == models.StatusVerified {
			// Materialize before the closing write. A projection failure
			// leaves the case open so the transition can be retried; if the
			// closing Save loses the optimistic race, the retried
			// materialization is absorbed as a replay.
			if err := e.projection.MaterializeFromVerification(ctx, c); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.metrics.RecordTransition(string(newStatus))

	switch newStatus {
	case models.StatusVerified:
		e.emit(ctx, audit.Event{
			Action: audit.ActionCaseVerified,
			Actor:  actor.Wallet,
			CaseID: caseID.String(),
			Reason: remarks,
		})
		e.emit(ctx, audit.Event{
			Action:  audit.ActionPropertyMaterialized,
			Actor:   actor.Wallet,
			Subject: c.Owner,
			CaseID:  caseID.String(),
		})
	case models.StatusRejected:
		e.emit(ctx, audit.Event{
			Action: audit.ActionCaseRejected,
			Actor:  actor.Wallet,
			CaseID: caseID.String(),
			Reason: remarks,
		})
	}
	return c, nil
}

// AddDocument uploads one more supporting document to an open case. The
// blob is stored before the Document record is appended: all-or-nothing.
func (e *Engine) AddDocument(ctx context.Context, actor id.Actor, caseID id.VerificationID, upload DocumentUpload) (*models.Document, error) {
	ctx, span := e.tracer.Start(ctx, "verification.AddDocument")
	defer span.End()
	start := time.Now()
	defer e.metrics.ObserveOperation("add_document", start)

	c, err := e.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.IsClosed() {
		return nil, dErrors.New(dErrors.CodeCaseClosed, "case is permanently closed")
	}
	if c.Owner != actor.Wallet {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "only the case owner may add documents")
	}

	hash, err := e.documents.Put(ctx, upload.Content)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "upload document")
	}
	doc := models.Document{
		ID:          id.NewDocumentID(),
		Type:        upload.Type,
		ContentHash: hash,
		Filename:    upload.Filename,
		UploadedAt:  requestcontext.Now(ctx),
	}
	if err := e.cases.AppendDocument(ctx, caseID, doc); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "append document")
	}
	return &doc, nil
}

// GetCase retrieves one case by ID.
func (e *Engine) GetCase(ctx context.Context, caseID id.VerificationID) (*models.PropertyVerification, error) {
	c, err := e.cases.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "find case")
	}
	return c, nil
}

// ListCasesForOwner returns all cases an owner submitted, open and resolved.
func (e *Engine) ListCasesForOwner(ctx context.Context, owner id.WalletAddress) ([]*models.PropertyVerification, error) {
	cases, err := e.cases.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "list cases for owner")
	}
	return cases, nil
}

// ListCasesForInspector returns all cases assigned to an inspector.
func (e *Engine) ListCasesForInspector(ctx context.Context, inspector id.WalletAddress) ([]*models.PropertyVerification, error) {
	cases, err := e.cases.ListByInspector(ctx, inspector)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "list cases for inspector")
	}
	return cases, nil
}

// uploadDocuments stores all blobs concurrently. Any failure aborts the
// whole submission before a single Document record exists.
func (e *Engine) uploadDocuments(ctx context.Context, uploads []DocumentUpload) ([]models.Document, error) {
	now := requestcontext.Now(ctx)
	docs := make([]models.Document, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	for i, upload := range uploads {
		g.Go(func() error {
			hash, err := e.documents.Put(gctx, upload.Content)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "upload document "+upload.Filename)
			}
			docs[i] = models.Document{
				ID:          id.NewDocumentID(),
				Type:        upload.Type,
				ContentHash: hash,
				Filename:    upload.Filename,
				UploadedAt:  now,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

// updateCase runs the full read-validate-mutate-save sequence, retrying
// stale writes up to the configured budget. Validation failures abort
// immediately; only concurrency losses retry.
func (e *Engine) updateCase(ctx context.Context, caseID id.VerificationID, mutate func(c *models.PropertyVerification) error) (*models.PropertyVerification, error) {
	for attempt := 0; attempt < e.saveAttempts; attempt++ {
		c, err := e.GetCase(ctx, caseID)
		if err != nil {
			return nil, err
		}
		if err := mutate(c); err != nil {
			return nil, err
		}
		err = e.cases.Save(ctx, c)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, sentinel.ErrStaleWrite) {
			e.metrics.RecordConflict()
			e.logger.WarnContext(ctx, "stale case write, retrying",
				"case_id", caseID.String(),
				"attempt", attempt+1,
			)
			continue
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeStorageUnavailable, "save case")
	}
	return nil, dErrors.New(dErrors.CodeConflict, "case was modified concurrently, retries exhausted")
}

// emit sends a case lifecycle event to the audit inbox. Fail-open: a
// missing or full inbox never fails the business operation.
func (e *Engine) emit(ctx context.Context, event audit.Event) {
	if e.auditInbox == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	event.SourceIP = metadata.ClientIP(ctx)
	select {
	case e.auditInbox <- event:
	default:
		e.logger.WarnContext(ctx, "audit inbox full, event dropped", "action", event.Action)
	}
}
