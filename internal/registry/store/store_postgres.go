package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"landregistry/internal/registry/models"
	id "landregistry/pkg/domain"
	"landregistry/pkg/platform/sentinel"
)

// Postgres persists property projections. survey_id is the primary key, so
// the exactly-once materialization invariant is a plain uniqueness
// constraint.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, p *models.Property) error {
	query := `
		INSERT INTO properties (
			survey_id, owner_address, verification_id, for_sale, price_in_wei,
			status, location, area, area_unit, property_type, materialized_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.SurveyID.String(), p.Owner.String(), p.VerificationID.String(),
		p.ForSale, p.PriceInWei, string(p.Status),
		p.Location, p.Area, p.AreaUnit, p.PropertyType, p.MaterializedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("insert property: %w", err)
	}
	return nil
}

func (s *Postgres) FindBySurveyID(ctx context.Context, surveyID id.SurveyID) (*models.Property, error) {
	row := s.db.QueryRowContext(ctx, selectProperty+` WHERE survey_id = $1`, surveyID.String())
	return scanProperty(row)
}

func (s *Postgres) ListByOwner(ctx context.Context, owner id.WalletAddress) ([]*models.Property, error) {
	return s.list(ctx, selectProperty+` WHERE owner_address = $1 ORDER BY materialized_at`, owner.String())
}

func (s *Postgres) ListForSale(ctx context.Context) ([]*models.Property, error) {
	return s.list(ctx, selectProperty+` WHERE for_sale AND status = 'active' ORDER BY materialized_at`)
}

func (s *Postgres) list(ctx context.Context, query string, args ...any) ([]*models.Property, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []*models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties: %w", err)
	}
	return out, nil
}

const selectProperty = `
	SELECT survey_id, owner_address, verification_id, for_sale, price_in_wei,
	       status, location, area, area_unit, property_type, materialized_at
	FROM properties
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*models.Property, error) {
	var (
		p              models.Property
		surveyID       string
		owner          string
		verificationID string
		status         string
	)
	err := row.Scan(
		&surveyID, &owner, &verificationID, &p.ForSale, &p.PriceInWei,
		&status, &p.Location, &p.Area, &p.AreaUnit, &p.PropertyType, &p.MaterializedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan property: %w", err)
	}
	parsedID, err := id.ParseVerificationID(verificationID)
	if err != nil {
		return nil, fmt.Errorf("stored verification id invalid: %w", err)
	}
	p.SurveyID = id.SurveyID(surveyID)
	p.Owner = id.WalletAddress(owner)
	p.VerificationID = parsedID
	p.Status = models.ListingStatus(status)
	return &p, nil
}
