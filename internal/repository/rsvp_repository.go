package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mindset-app/mindset-backend/internal/model"
)

// RSVPRepo provides access to the event_rsvps table.  The table carries a
// UNIQUE (event_id, user_id) key which is the final guard against duplicate
// signups; the capacity check relies on locking the parent event row.
type RSVPRepo struct {
	db *sql.DB
}

// NewRSVPRepo returns a new RSVPRepo bound to the given database.
func NewRSVPRepo(db *sql.DB) *RSVPRepo { return &RSVPRepo{db: db} }

// Create records a "going" RSVP for userID on eventID.
//
// The event row is read with SELECT ... FOR UPDATE, so concurrent signups
// for the same event queue behind each other and each one observes the
// rows committed by its predecessors.  Within that lock it rejects past
// events (ErrEventPast), existing RSVPs (ErrAlreadyRSVPd) and full events
// (ErrCapacityReached).  A duplicate key on insert is reported as
// ErrAlreadyRSVPd.  ErrNotFound means the event does not exist.
func (r *RSVPRepo) Create(ctx context.Context, eventID string, userID int64, now time.Time) (*model.RSVP, error) {
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

	var (
		status   string
		capacity sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, capacity FROM events WHERE id = ? FOR UPDATE`, eventID,
	).Scan(&status, &capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if model.EventStatus(status) == model.EventPast {
		return nil, ErrEventPast
	}

	var existing uint64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM event_rsvps WHERE event_id = ? AND user_id = ? LOCK IN SHARE MODE`, eventID, userID,
	).Scan(&existing)
	switch {
	case err == nil:
		return nil, ErrAlreadyRSVPd
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	if capacity.Valid {
		var taken int64
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM event_rsvps WHERE event_id = ? LOCK IN SHARE MODE`, eventID,
		).Scan(&taken); err != nil {
			return nil, err
		}
		if taken >= capacity.Int64 {
			return nil, ErrCapacityReached
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO event_rsvps (event_id, user_id, status, created_at) VALUES (?, ?, ?, ?)`,
		eventID, userID, string(model.RSVPGoing), now,
	)
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrAlreadyRSVPd
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &model.RSVP{
		ID:        uint64(id),
		EventID:   eventID,
		UserID:    userID,
		Status:    model.RSVPGoing,
		CreatedAt: now,
	}, nil
}

// Get returns the RSVP of userID for eventID or ErrNotFound.
func (r *RSVPRepo) Get(ctx context.Context, eventID string, userID int64) (*model.RSVP, error) {
	var (
		rv     model.RSVP
		status string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, event_id, user_id, status, created_at FROM event_rsvps WHERE event_id = ? AND user_id = ?`,
		eventID, userID,
	).Scan(&rv.ID, &rv.EventID, &rv.UserID, &status, &rv.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rv.Status = model.RSVPStatus(status)
	return &rv, nil
}

// Delete removes the RSVP if present and reports whether a row was deleted.
func (r *RSVPRepo) Delete(ctx context.Context, eventID string, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM event_rsvps WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns the user's RSVPs joined with their events, newest RSVP
// first.  before is an exclusive RSVP id watermark; zero means no cursor.
func (r *RSVPRepo) ListByUser(ctx context.Context, userID int64, limit int, before uint64) ([]model.UserRSVP, error) {
	var where whereBuilder
	where.add("r.user_id = ?", userID)
	if before > 0 {
		where.add("r.id < ?", before)
	}
	cond, args := where.sql()
	q := `SELECT r.id, r.event_id, r.user_id, r.status, r.created_at,
	             e.id, e.title, e.type, e.starts_at, e.host, e.status, e.capacity, e.created_by, e.created_at, e.updated_at
	      FROM event_rsvps r
	      JOIN events e ON e.id = r.event_id
	      WHERE ` + cond + `
	      ORDER BY r.id DESC
	      LIMIT ?`

	rows, err := r.db.QueryContext(ctx, q, append(args, limit)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.UserRSVP, 0, limit)
	for rows.Next() {
		var (
			item       model.UserRSVP
			rsvpStatus string
			evStatus   string
			capacity   sql.NullInt64
		)
		ev := &item.Event
		if err := rows.Scan(
			&item.RSVP.ID, &item.RSVP.EventID, &item.RSVP.UserID, &rsvpStatus, &item.RSVP.CreatedAt,
			&ev.ID, &ev.Title, &ev.Type, &ev.StartsAt, &ev.Host, &evStatus, &capacity,
			&ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt,
		); err != nil {
			return nil, err
		}
		item.RSVP.Status = model.RSVPStatus(rsvpStatus)
		ev.Status = model.EventStatus(evStatus)
		if capacity.Valid {
			c := int(capacity.Int64)
			ev.Capacity = &c
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
