package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xavisolis/nutmeglocal/internal/entity"
)

// EventsRepository persists and reads listing interaction events.
type EventsRepository interface {
	Insert(ctx context.Context, event *entity.BusinessEvent) error
	ListSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]entity.BusinessEvent, error)
}

// PGXEventsRepository implements EventsRepository using pgx.
type PGXEventsRepository struct {
	pool pgxPool
}

// NewPGXEventsRepository wires a pgx backed repository.
func NewPGXEventsRepository(pool *pgxpool.Pool) *PGXEventsRepository {
	return &PGXEventsRepository{pool: pool}
}

// Insert appends an event. Events are never updated. An event for a listing
// that does not exist yields ErrBusinessNotFound.
func (r *PGXEventsRepository) Insert(ctx context.Context, event *entity.BusinessEvent) error {
	if event == nil {
		return fmt.Errorf("event payload is nil")
	}
	err := r.pool.QueryRow(ctx, `
        INSERT INTO business_events (business_id, event_type, referrer, search_term)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `, event.BusinessID, string(event.EventType), stringOrNil(event.Referrer), stringOrNil(event.SearchTerm)).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert event: %w", ErrBusinessNotFound)
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListSince returns the business events created at or after since, newest first.
func (r *PGXEventsRepository) ListSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]entity.BusinessEvent, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, business_id, event_type, referrer, search_term, created_at
        FROM business_events
        WHERE business_id = $1 AND created_at >= $2
        ORDER BY created_at DESC
    `, businessID, since)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]entity.BusinessEvent, 0)
	for rows.Next() {
		var (
			event     entity.BusinessEvent
			eventType string
		)
		if err := rows.Scan(&event.ID, &event.BusinessID, &eventType, &event.Referrer, &event.SearchTerm, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		event.EventType = entity.EventType(eventType)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
