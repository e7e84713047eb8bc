package audit

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresStore persists audit events in PostgreSQL. Append-only.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (ts, action, voter_id, actor_id, actor_name, actor_role, request_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp, string(event.Action), event.VoterID,
		event.ActorID, event.ActorName, event.ActorRole,
		event.RequestID, event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByVoter(ctx context.Context, voterID string) ([]Event, error) {
	query := `
		SELECT ts, action, voter_id, actor_id, actor_name, actor_role, request_id, detail
		FROM audit_events
		WHERE voter_id = $1
		ORDER BY ts ASC
	`
	rows, err := s.db.QueryContext(ctx, query, voterID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var action string
		if err := rows.Scan(&e.Timestamp, &action, &e.VoterID, &e.ActorID, &e.ActorName, &e.ActorRole, &e.RequestID, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	return out, rows.Err()
}
