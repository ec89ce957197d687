package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "landregistry/pkg/platform/audit"
)

// Store implements audit.Store as an append-only journal in PostgreSQL.
// This is the durable record; Kafka distribution happens separately through
// the fail-open fanout publisher.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store writing to the audit_events table.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// eventPayload is the JSONB body stored alongside the searchable columns.
type eventPayload struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Actor     string `json:"actor,omitempty"`
	Subject   string `json:"subject,omitempty"`
	CaseID    string `json:"case_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	SourceIP  string `json:"source_ip,omitempty"`
}

// Append journals one audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	payload := eventPayload{
		ID:        eventID.String(),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Action:    string(event.Action),
		Actor:     event.Actor.String(),
		Subject:   event.Subject.String(),
		CaseID:    event.CaseID,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		SourceIP:  event.SourceIP,
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "case"
	aggregateID := event.CaseID
	if aggregateID == "" {
		aggregateType = "user"
		aggregateID = event.Subject.String()
	}

	query := `
		INSERT INTO audit_events (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		string(event.Action),
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
