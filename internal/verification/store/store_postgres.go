package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"landregistry/internal/verification/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

// Postgres persists one row per PropertyVerification aggregate, with
// documents and timeline embedded as JSONB.
//
// The open-case uniqueness invariant is a partial unique index:
//
//	CREATE UNIQUE INDEX cases_open_survey_uniq ON verification_cases (survey_id)
//	WHERE status NOT IN ('verified', 'rejected');
//
// Optimistic concurrency rides on the version column: Save only matches the
// row when the stored version equals the caller's read version.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, c *models.PropertyVerification) error {
	details, documents, report, timeline, err := marshalAggregate(c)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO verification_cases (
			verification_id, survey_id, owner_address, inspector_address, status,
			details, documents, report, timeline, rejection_reason,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID.String(), c.SurveyID.String(), c.Owner.String(), c.Inspector.String(), string(c.Status),
		details, documents, report, timeline, c.RejectionReason,
		c.CreatedAt, c.UpdatedAt, c.Version,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, caseID id.VerificationID) (*models.PropertyVerification, error) {
	row := s.db.QueryRowContext(ctx, selectCase+` WHERE verification_id = $1`, caseID.String())
	return scanCase(row)
}

func (s *Postgres) FindOpenBySurveyID(ctx context.Context, surveyID id.SurveyID) (*models.PropertyVerification, error) {
	row := s.db.QueryRowContext(ctx,
		selectCase+` WHERE survey_id = $1 AND status NOT IN ('verified', 'rejected')`,
		surveyID.String())
	return scanCase(row)
}

func (s *Postgres) Save(ctx context.Context, c *models.PropertyVerification) error {
	details, documents, report, timeline, err := marshalAggregate(c)
	if err != nil {
		return err
	}
	query := `
		UPDATE verification_cases SET
			inspector_address = $3, status = $4,
			details = $5, documents = $6, report = $7, timeline = $8,
			rejection_reason = $9, updated_at = $10, version = version + 1
		WHERE verification_id = $1 AND version = $2
	`
	res, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.Version,
		c.Inspector.String(), string(c.Status),
		details, documents, report, timeline,
		c.RejectionReason, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update case rows affected: %w", err)
	}
	if rows == 0 {
		// Either the case is gone or a concurrent writer bumped the version.
		if _, findErr := s.FindByID(ctx, c.ID); findErr != nil {
			return findErr
		}
		return sentinel.ErrStaleWrite
	}
	c.Version++
	return nil
}

func (s *Postgres) AppendDocument(ctx context.Context, caseID id.VerificationID, doc models.Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return s.appendJSONB(ctx, caseID, "documents", payload)
}

func (s *Postgres) AppendTimeline(ctx context.Context, caseID id.VerificationID, entry models.Notification) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal timeline entry: %w", err)
	}
	return s.appendJSONB(ctx, caseID, "timeline", payload)
}

func (s *Postgres) appendJSONB(ctx context.Context, caseID id.VerificationID, column string, payload []byte) error {
	// column is one of two internal constants, never caller input.
	query := fmt.Sprintf(`
		UPDATE verification_cases
		SET %s = %s || $2::jsonb
		WHERE verification_id = $1
	`, column, column)
	res, err := s.db.ExecContext(ctx, query, caseID.String(), payload)
	if err != nil {
		return fmt.Errorf("append %s: %w", column, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append %s rows affected: %w", column, err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) ListByOwner(ctx context.Context, owner id.WalletAddress) ([]*models.PropertyVerification, error) {
	return s.list(ctx, selectCase+` WHERE owner_address = $1 ORDER BY created_at`, owner.String())
}

func (s *Postgres) ListByInspector(ctx context.Context, inspector id.WalletAddress) ([]*models.PropertyVerification, error) {
	return s.list(ctx, selectCase+` WHERE inspector_address = $1 ORDER BY created_at`, inspector.String())
}

func (s *Postgres) list(ctx context.Context, query string, arg any) ([]*models.PropertyVerification, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*models.PropertyVerification
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cases: %w", err)
	}
	return out, nil
}

const selectCase = `
	SELECT verification_id, survey_id, owner_address, inspector_address, status,
	       details, documents, report, timeline, rejection_reason,
	       created_at, updated_at, version
	FROM verification_cases
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCase(row rowScanner) (*models.PropertyVerification, error) {
	var (
		c          models.PropertyVerification
		caseID     string
		surveyID   string
		owner      string
		inspector  string
		status     string
		details    []byte
		documents  []byte
		reportRaw  []byte
		timeline   []byte
	)
	err := row.Scan(
		&caseID, &surveyID, &owner, &inspector, &status,
		&details, &documents, &reportRaw, &timeline, &c.RejectionReason,
		&c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan case: %w", err)
	}

	parsedID, err := id.ParseVerificationID(caseID)
	if err != nil {
		return nil, fmt.Errorf("stored case id invalid: %w", err)
	}
	c.ID = parsedID
	c.SurveyID = id.SurveyID(surveyID)
	c.Owner = id.WalletAddress(owner)
	c.Inspector = id.WalletAddress(inspector)
	c.Status = models.Status(status)

	if err := json.Unmarshal(details, &c.Details); err != nil {
		return nil, fmt.Errorf("unmarshal details: %w", err)
	}
	if err := json.Unmarshal(documents, &c.Documents); err != nil {
		return nil, fmt.Errorf("unmarshal documents: %w", err)
	}
	if err := json.Unmarshal(timeline, &c.Timeline); err != nil {
		return nil, fmt.Errorf("unmarshal timeline: %w", err)
	}
	if len(reportRaw) > 0 && string(reportRaw) != "null" {
		var report models.InspectionReport
		if err := json.Unmarshal(reportRaw, &report); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		c.Report = &report
	}
	return &c, nil
}

func marshalAggregate(c *models.PropertyVerification) (details, documents, report, timeline []byte, err error) {
	if details, err = json.Marshal(c.Details); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal details: %w", err)
	}
	docs := c.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	if documents, err = json.Marshal(docs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal documents: %w", err)
	}
	if report, err = json.Marshal(c.Report); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal report: %w", err)
	}
	entries := c.Timeline
	if entries == nil {
		entries = []models.Notification{}
	}
	if timeline, err = json.Marshal(entries); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal timeline: %w", err)
	}
	return details, documents, report, timeline, nil
}
