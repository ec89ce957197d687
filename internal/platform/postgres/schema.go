package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the full DDL for the service. Statements are idempotent so
// EnsureSchema can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	wallet_address       TEXT PRIMARY KEY,
	role                 TEXT NOT NULL,
	name                 TEXT NOT NULL DEFAULT '',
	email                TEXT NOT NULL DEFAULT '',
	phone                TEXT NOT NULL DEFAULT '',
	aadhaar_hash         TEXT NOT NULL DEFAULT '',
	pan_hash             TEXT NOT NULL DEFAULT '',
	kyc_verified         BOOLEAN NOT NULL DEFAULT FALSE,
	kyc_rejection_reason TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS verification_cases (
	verification_id   UUID PRIMARY KEY,
	survey_id         TEXT NOT NULL,
	owner_address     TEXT NOT NULL,
	inspector_address TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	details           JSONB NOT NULL,
	documents         JSONB NOT NULL DEFAULT '[]',
	report            JSONB,
	timeline          JSONB NOT NULL DEFAULT '[]',
	rejection_reason  TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL,
	version           BIGINT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS cases_open_survey_uniq
	ON verification_cases (survey_id)
	WHERE status NOT IN ('verified', 'rejected');

CREATE INDEX IF NOT EXISTS cases_owner_idx ON verification_cases (owner_address);
CREATE INDEX IF NOT EXISTS cases_inspector_idx ON verification_cases (inspector_address);

CREATE TABLE IF NOT EXISTS properties (
	survey_id       TEXT PRIMARY KEY,
	owner_address   TEXT NOT NULL,
	verification_id UUID NOT NULL,
	for_sale        BOOLEAN NOT NULL,
	price_in_wei    TEXT NOT NULL,
	status          TEXT NOT NULL,
	location        TEXT NOT NULL,
	area            DOUBLE PRECISION NOT NULL,
	area_unit       TEXT NOT NULL,
	property_type   TEXT NOT NULL,
	materialized_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS properties_owner_idx ON properties (owner_address);

CREATE TABLE IF NOT EXISTS audit_events (
	id             UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	payload        JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS audit_events_aggregate_idx ON audit_events (aggregate_type, aggregate_id);
`

// EnsureSchema creates all tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
