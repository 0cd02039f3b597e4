package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Recorder persists audit events
type Recorder interface {
	Record(ctx context.Context, event *Event) error
	List(ctx context.Context, businessID int64, limit int) ([]*Event, error)
}

// DBRecorder writes audit events to the team_audit_log table
type DBRecorder struct {
	db *sql.DB
}

// NewDBRecorder creates a new database-backed audit recorder
func NewDBRecorder(db *sql.DB) (*DBRecorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &DBRecorder{db: db}, nil
}

// Record inserts a single event into the trail
func (r *DBRecorder) Record(ctx context.Context, event *Event) error {
	detail, err := event.detailJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal detail: %w", err)
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO team_audit_log (business_id, actor_id, action, target, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, event.BusinessID, event.ActorID, string(event.Action), event.Target, detail, event.CreatedAt).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// List returns the most recent events for a business, newest first
func (r *DBRecorder) List(ctx context.Context, businessID int64, limit int) ([]*Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, business_id, actor_id, action, target, detail, created_at
		FROM team_audit_log
		WHERE business_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, businessID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			event  Event
			action string
			target sql.NullString
			detail []byte
		)
		if err := rows.Scan(&event.ID, &event.BusinessID, &event.ActorID, &action, &target, &detail, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Action = EventType(action)
		event.Target = target.String
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &event.Detail); err != nil {
				return nil, fmt.Errorf("failed to unmarshal detail: %w", err)
			}
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

// NopRecorder discards all events. Used in tests and when auditing is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, event *Event) error { return nil }

func (NopRecorder) List(ctx context.Context, businessID int64, limit int) ([]*Event, error) {
	return nil, nil
}
