package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mindset-app/mindset-backend/internal/metrics"
	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/pagination"
	q "github.com/mindset-app/mindset-backend/internal/queue"
	"github.com/mindset-app/mindset-backend/internal/repository"
)

// EventStore is the persistence the event service needs.  The MySQL
// implementation is repository.EventRepo.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	StartsAt(ctx context.Context, id string) (time.Time, error)
	Update(ctx context.Context, id string, ch model.EventChanges, now time.Time) (*model.Event, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, status model.EventStatus, limit int, after *pagination.Position) ([]model.Event, error)
}

var validate = validator.New()

// CreateEventInput is the decoded body of POST /events.  Capacity stays raw
// so that numeric strings and integral floats can be accepted.
type CreateEventInput struct {
	Title    string          `json:"title" validate:"required"`
	Type     string          `json:"type" validate:"required"`
	StartsAt string          `json:"startsAt" validate:"required"`
	Host     string          `json:"host" validate:"required"`
	Capacity json.RawMessage `json:"capacity"`
}

// EventPatch is the decoded body of PATCH /events/{id}, keyed by JSON field
// name.  Unknown keys are ignored.
type EventPatch map[string]json.RawMessage

// EventPage is one page of an event listing.
type EventPage struct {
	Items      []model.Event
	NextCursor *string
}

// EventService applies the event rules on top of an EventStore.
type EventService struct {
	store EventStore
	pub   Publisher

	// Now is the clock used for status derivation and timestamps.
	Now   func() time.Time
	NewID func() string
}

func NewEventService(store EventStore, pub Publisher) *EventService {
	if store == nil {
		panic("nil event store passed to NewEventService")
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	return &EventService{
		store: store,
		pub:   pub,
		Now:   time.Now,
		NewID: func() string { return uuid.NewString() },
	}
}

func (s *EventService) now() time.Time { return s.Now().UTC().Truncate(time.Second) }

func requireAdmin(actor Identity) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// Create validates in and stores a new event created by actor.
func (s *EventService) Create(ctx context.Context, in CreateEventInput, actor Identity) (*model.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: title, type, startsAt and host are required", ErrValidation)
	}
	startsAt, err := pagination.ParseTime(in.StartsAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid startsAt", ErrValidation)
	}
	capacity, err := parseCapacity(in.Capacity)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ev := &model.Event{
		ID:        s.NewID(),
		Title:     in.Title,
		Type:      in.Type,
		StartsAt:  startsAt,
		Host:      in.Host,
		Status:    model.StatusAt(startsAt, now),
		Capacity:  capacity,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, ev); err != nil {
		return nil, err
	}
	metrics.EventsWritten.WithLabelValues("create").Inc()
	return ev, nil
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, id string) (*model.Event, error) {
	ev, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: event not found", ErrNotFound)
	}
	return ev, err
}

// Update applies a partial update.  Nothing is written unless every present
// field is valid.  A new startsAt recomputes the status unless the patch
// sets status explicitly.
func (s *EventService) Update(ctx context.Context, id string, patch EventPatch, actor Identity) (*model.Event, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	ch, err := patch.changes()
	if err != nil {
		return nil, err
	}
	if ch.Empty() {
		return nil, fmt.Errorf("%w: no updatable fields", ErrValidation)
	}

	now := s.now()
	if ch.StartsAt != nil && ch.Status == nil {
		st := model.StatusAt(*ch.StartsAt, now)
		ch.Status = &st
	}
	ev, err := s.store.Update(ctx, id, ch, now)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: event not found", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	metrics.EventsWritten.WithLabelValues("update").Inc()
	return ev, nil
}

// Delete removes an event and its RSVPs.  Missing events are not an error.
func (s *EventService) Delete(ctx context.Context, id string, actor Identity) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	existed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if existed {
		metrics.EventsWritten.WithLabelValues("delete").Inc()
		notify(s.pub, q.ActivityEvent{
			Type:       q.TypeEventDeleted,
			EventID:    id,
			UserID:     actor.UserID,
			OccurredAt: pagination.FormatTime(s.now()),
		})
	}
	return nil
}

// ListEvents returns one page of events with the given status.  rawStatus
// defaults to upcoming; rawCursor may be a composite or a legacy id-only
// cursor.
func (s *EventService) ListEvents(ctx context.Context, rawStatus string, limit int, rawCursor string) (EventPage, error) {
	status := model.EventUpcoming
	if rawStatus != "" {
		st, ok := model.ParseEventStatus(rawStatus)
		if !ok {
			return EventPage{}, fmt.Errorf("%w: status must be upcoming or past", ErrValidation)
		}
		status = st
	}
	limit = pagination.ClampLimit(limit)

	var after *pagination.Position
	if rawCursor != "" {
		pos, err := s.position(ctx, rawCursor)
		if err != nil {
			return EventPage{}, err
		}
		after = &pos
	}

	items, err := s.store.List(ctx, status, limit, after)
	if err != nil {
		return EventPage{}, err
	}
	page := EventPage{Items: items}
	if pagination.HasMore(len(items), limit) {
		last := items[len(items)-1]
		next := pagination.EncodeEvent(last.ID, last.StartsAt)
		page.NextCursor = &next
	}
	return page, nil
}

func (s *EventService) position(ctx context.Context, raw string) (pagination.Position, error) {
	cur, err := pagination.DecodeEvent(raw)
	if err != nil {
		return pagination.Position{}, fmt.Errorf("%w: invalid cursor", ErrValidation)
	}
	if pos, ok := cur.Resolved(); ok {
		return pos, nil
	}
	startsAt, err := s.store.StartsAt(ctx, cur.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return pagination.Position{}, fmt.Errorf("%w: invalid cursor", ErrValidation)
	}
	if err != nil {
		return pagination.Position{}, err
	}
	return pagination.Position{StartsAt: startsAt, ID: cur.ID}, nil
}

func (p EventPatch) changes() (model.EventChanges, error) {
	var ch model.EventChanges
	for _, field := range []struct {
		key string
		dst **string
	}{
		{"title", &ch.Title},
		{"type", &ch.Type},
		{"host", &ch.Host},
	} {
		raw, ok := p[field.key]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil || v == "" {
			return ch, fmt.Errorf("%w: %s must be a non-empty string", ErrValidation, field.key)
		}
		*field.dst = &v
	}

	if raw, ok := p["startsAt"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return ch, fmt.Errorf("%w: invalid startsAt", ErrValidation)
		}
		t, err := pagination.ParseTime(v)
		if err != nil {
			return ch, fmt.Errorf("%w: invalid startsAt", ErrValidation)
		}
		ch.StartsAt = &t
	}

	if raw, ok := p["status"]; ok {
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return ch, fmt.Errorf("%w: status must be upcoming or past", ErrValidation)
		}
		st, ok := model.ParseEventStatus(v)
		if !ok {
			return ch, fmt.Errorf("%w: status must be upcoming or past", ErrValidation)
		}
		ch.Status = &st
	}

	if raw, ok := p["capacity"]; ok {
		c, err := parseCapacity(raw)
		if err != nil {
			return ch, err
		}
		ch.Capacity = c
		ch.CapacitySet = true
	}
	return ch, nil
}

// parseCapacity accepts a JSON integer, a float with an integral value or a
// numeric string.  Absent and null mean unlimited.
func parseCapacity(raw json.RawMessage) (*int, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	invalid := fmt.Errorf("%w: capacity must be a non-negative integer", ErrValidation)

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, invalid
	}

	var n int64
	switch t := v.(type) {
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			f, ferr := t.Float64()
			if ferr != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
				return nil, invalid
			}
			i = int64(f)
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, invalid
		}
		n = i
	default:
		return nil, invalid
	}
	if n < 0 || n > math.MaxInt32 {
		return nil, invalid
	}
	c := int(n)
	return &c, nil
}
