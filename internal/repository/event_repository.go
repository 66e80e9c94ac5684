package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/pagination"
)

const eventColumns = `id, title, type, starts_at, host, status, capacity, created_by, created_at, updated_at`

// EventRepo manages persistence for events.  Timestamps are written and
// read as UTC DATETIME values (the DSN sets loc=UTC).
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying sql.DB.
func (r *EventRepo) DB() *sql.DB { return r.db }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (model.Event, error) {
	var (
		e        model.Event
		status   string
		capacity sql.NullInt64
	)
	err := row.Scan(&e.ID, &e.Title, &e.Type, &e.StartsAt, &e.Host, &status, &capacity,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return model.Event{}, err
	}
	e.Status = model.EventStatus(status)
	if capacity.Valid {
		c := int(capacity.Int64)
		e.Capacity = &c
	}
	return e, nil
}

func nullCapacity(c *int) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

// Create inserts e and refreshes it from the stored row.  The caller
// assigns ID, Status and both timestamps.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (` + eventColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Type, e.StartsAt, e.Host, string(e.Status), nullCapacity(e.Capacity),
		e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return err
	}
	fresh, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = *fresh
	return nil
}

// GetByID retrieves an event by id.  It returns ErrNotFound if there is no
// matching row.
func (r *EventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// StartsAt returns the start time of an event.  It is used to rebuild the
// keyset position from id-only cursors.
func (r *EventRepo) StartsAt(ctx context.Context, id string) (time.Time, error) {
	var t time.Time
	err := r.db.QueryRowContext(ctx, `SELECT starts_at FROM events WHERE id = ?`, id).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return t, err
}

// Update applies ch to the event and stamps updated_at with now.  The
// UPDATE and the read-back run in one transaction; ErrNotFound is returned
// when no event has the id.
func (r *EventRepo) Update(ctx context.Context, id string, ch model.EventChanges, now time.Time) (*model.Event, error) {
	var set setBuilder
	if ch.Title != nil {
		set.set("title", *ch.Title)
	}
	if ch.Type != nil {
		set.set("type", *ch.Type)
	}
	if ch.StartsAt != nil {
		set.set("starts_at", *ch.StartsAt)
	}
	if ch.Host != nil {
		set.set("host", *ch.Host)
	}
	if ch.Status != nil {
		set.set("status", string(*ch.Status))
	}
	if ch.CapacitySet {
		set.set("capacity", nullCapacity(ch.Capacity))
	}
	set.set("updated_at", now)
	assign, args := set.sql()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `UPDATE events SET `+assign+` WHERE id = ?`, append(args, id)...); err != nil {
		return nil, err
	}
	e, err := scanEvent(tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &e, nil
}

// Delete removes the event and all of its RSVPs in one transaction and
// reports whether the event existed.  The event row is locked first so
// that the lock order matches RSVP creation.  Deleting a missing id is not
// an error.
func (r *EventRepo) Delete(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	existed := err == nil
	if _, err := tx.ExecContext(ctx, `DELETE FROM event_rsvps WHERE event_id = ?`, id); err != nil {
		return false, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return existed, nil
}

// List returns up to limit events with the given status ordered by
// starts_at DESC, id DESC.  When after is set only rows strictly past that
// position are returned.
func (r *EventRepo) List(ctx context.Context, status model.EventStatus, limit int, after *pagination.Position) ([]model.Event, error) {
	var where whereBuilder
	where.add("status = ?", string(status))
	if after != nil {
		where.add("(starts_at < ? OR (starts_at = ? AND id < ?))", after.StartsAt, after.StartsAt, after.ID)
	}
	cond, args := where.sql()
	q := `SELECT ` + eventColumns + ` FROM events WHERE ` + cond + ` ORDER BY starts_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
