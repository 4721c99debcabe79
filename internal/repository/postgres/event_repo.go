package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"clubcalendar/internal/domain"
)

const eventColumns = `id, name, host_club, description, time_spec, location, created_at, updated_at`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (id, name, host_club, description, time_spec, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := tx.ExecContext(ctx, query,
		e.ID, e.Name, e.HostClub, e.Description, e.TimeSpec, e.Location, e.CreatedAt, e.UpdatedAt); err != nil {
		return err
	}
	for _, tag := range e.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_interests (event_id, tag) VALUES ($1, $2) ON CONFLICT (event_id, tag) DO NOTHING`,
			e.ID, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByName returns the oldest event carrying the name. Names are not unique;
// the legacy selection flow resolves events by name and takes the first match.
func (r *eventRepository) GetByName(ctx context.Context, name string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE name = $1 ORDER BY created_at LIMIT 1`
	return r.getOne(ctx, query, name)
}

func (r *eventRepository) getOne(ctx context.Context, query string, arg any) (*domain.Event, error) {
	e := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&e.ID, &e.Name, &e.HostClub, &e.Description, &e.TimeSpec, &e.Location, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	tags, err := r.ListTags(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Tags = tags
	return e, nil
}

// Update rewrites the event row and replaces its tag set wholesale
// (delete-all, then insert) inside one transaction.
func (r *eventRepository) Update(ctx context.Context, e *domain.Event) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE events
		SET name = $2, host_club = $3, description = $4, time_spec = $5, location = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := tx.ExecContext(ctx, query, e.ID, e.Name, e.HostClub, e.Description, e.TimeSpec, e.Location, e.UpdatedAt)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM event_interests WHERE event_id = $1`, e.ID); err != nil {
		return err
	}
	for _, tag := range e.Tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_interests (event_id, tag) VALUES ($1, $2) ON CONFLICT (event_id, tag) DO NOTHING`,
			e.ID, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventRepository) ListAll(ctx context.Context) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY time_spec`
	return r.list(ctx, query)
}

func (r *eventRepository) ListByClubs(ctx context.Context, clubs []string) ([]*domain.Event, error) {
	if len(clubs) == 0 {
		return []*domain.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE host_club = ANY($1) ORDER BY time_spec`
	return r.list(ctx, query, pq.Array(clubs))
}

func (r *eventRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	var eventIDs []string
	for rows.Next() {
		e := &domain.Event{}
		if err := rows.Scan(&e.ID, &e.Name, &e.HostClub, &e.Description, &e.TimeSpec, &e.Location, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Tags = []string{}
		events = append(events, e)
		eventIDs = append(eventIDs, e.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(eventIDs) == 0 {
		return events, nil
	}

	tagRows, err := r.DB.QueryContext(ctx,
		`SELECT event_id, tag FROM event_interests WHERE event_id = ANY($1)`, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	tagsByEvent := make(map[string][]string)
	for tagRows.Next() {
		var eventID, tag string
		if err := tagRows.Scan(&eventID, &tag); err != nil {
			return nil, err
		}
		tagsByEvent[eventID] = append(tagsByEvent[eventID], tag)
	}
	if err := tagRows.Err(); err != nil {
		return nil, err
	}
	for _, e := range events {
		if t := tagsByEvent[e.ID]; t != nil {
			e.Tags = t
		}
	}
	return events, nil
}

func (r *eventRepository) ListTags(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT tag FROM event_interests WHERE event_id = $1 ORDER BY tag`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}
