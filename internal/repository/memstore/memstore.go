// Package memstore is an in-memory implementation of the service storage
// interfaces.  It follows the same ordering and error contract as the MySQL
// repositories and backs the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/pagination"
	"github.com/mindset-app/mindset-backend/internal/repository"
)

type refreshToken struct {
	userID    int64
	expiresAt time.Time
	revoked   bool
}

// Store holds every table behind one mutex, which gives RSVP creation the
// same serialisation the row lock provides in MySQL.
type Store struct {
	mu sync.Mutex

	events   map[string]model.Event
	rsvps    map[rsvpKey]model.RSVP
	lastRSVP uint64

	users    map[int64]model.User
	roles    map[int64]model.Role
	lastUser int64

	tokens map[string]refreshToken
}

type rsvpKey struct {
	eventID string
	userID  int64
}

func New() *Store {
	return &Store{
		events: map[string]model.Event{},
		rsvps:  map[rsvpKey]model.RSVP{},
		users:  map[int64]model.User{},
		roles:  map[int64]model.Role{},
		tokens: map[string]refreshToken{},
	}
}

func copyEvent(e model.Event) model.Event {
	if e.Capacity != nil {
		c := *e.Capacity
		e.Capacity = &c
	}
	return e
}

// ---- events ----

func (s *Store) Create(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; ok {
		return repository.ErrConflict
	}
	s.events[e.ID] = copyEvent(*e)
	return nil
}

func (s *Store) GetByID(_ context.Context, id string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	e = copyEvent(e)
	return &e, nil
}

func (s *Store) StartsAt(_ context.Context, id string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return time.Time{}, repository.ErrNotFound
	}
	return e.StartsAt, nil
}

func (s *Store) Update(_ context.Context, id string, ch model.EventChanges, now time.Time) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ch.Title != nil {
		e.Title = *ch.Title
	}
	if ch.Type != nil {
		e.Type = *ch.Type
	}
	if ch.StartsAt != nil {
		e.StartsAt = *ch.StartsAt
	}
	if ch.Host != nil {
		e.Host = *ch.Host
	}
	if ch.Status != nil {
		e.Status = *ch.Status
	}
	if ch.CapacitySet {
		e.Capacity = ch.Capacity
	}
	e.UpdatedAt = now
	e = copyEvent(e)
	s.events[id] = e
	out := copyEvent(e)
	return &out, nil
}

func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, existed := s.events[id]
	for k := range s.rsvps {
		if k.eventID == id {
			delete(s.rsvps, k)
		}
	}
	delete(s.events, id)
	return existed, nil
}

// before reports whether a sorts ahead of b in starts_at DESC, id DESC order.
func before(a, b model.Event) bool {
	if !a.StartsAt.Equal(b.StartsAt) {
		return a.StartsAt.After(b.StartsAt)
	}
	return a.ID > b.ID
}

func (s *Store) List(_ context.Context, status model.EventStatus, limit int, after *pagination.Position) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []model.Event
	for _, e := range s.events {
		if e.Status != status {
			continue
		}
		if after != nil {
			if e.StartsAt.After(after.StartsAt) {
				continue
			}
			if e.StartsAt.Equal(after.StartsAt) && e.ID >= after.ID {
				continue
			}
		}
		all = append(all, copyEvent(e))
	}
	sort.Slice(all, func(i, j int) bool { return before(all[i], all[j]) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// ---- rsvps ----

// RSVPs adapts the store to the RSVP ledger, whose method names collide
// with the event methods.
func (s *Store) RSVPs() *RSVPLedger { return &RSVPLedger{s: s} }

type RSVPLedger struct{ s *Store }

func (l *RSVPLedger) Create(_ context.Context, eventID string, userID int64, now time.Time) (*model.RSVP, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if e.Status == model.EventPast {
		return nil, repository.ErrEventPast
	}
	key := rsvpKey{eventID, userID}
	if _, ok := s.rsvps[key]; ok {
		return nil, repository.ErrAlreadyRSVPd
	}
	if e.Capacity != nil {
		taken := 0
		for k := range s.rsvps {
			if k.eventID == eventID {
				taken++
			}
		}
		if taken >= *e.Capacity {
			return nil, repository.ErrCapacityReached
		}
	}
	s.lastRSVP++
	rv := model.RSVP{ID: s.lastRSVP, EventID: eventID, UserID: userID, Status: model.RSVPGoing, CreatedAt: now}
	s.rsvps[key] = rv
	return &rv, nil
}

func (l *RSVPLedger) Get(_ context.Context, eventID string, userID int64) (*model.RSVP, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	rv, ok := l.s.rsvps[rsvpKey{eventID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rv, nil
}

func (l *RSVPLedger) Delete(_ context.Context, eventID string, userID int64) (bool, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	key := rsvpKey{eventID, userID}
	_, ok := l.s.rsvps[key]
	delete(l.s.rsvps, key)
	return ok, nil
}

func (l *RSVPLedger) ListByUser(_ context.Context, userID int64, limit int, beforeID uint64) ([]model.UserRSVP, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.UserRSVP
	for k, rv := range s.rsvps {
		if k.userID != userID || (beforeID > 0 && rv.ID >= beforeID) {
			continue
		}
		out = append(out, model.UserRSVP{RSVP: rv, Event: copyEvent(s.events[k.eventID])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RSVP.ID > out[j].RSVP.ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of RSVPs for an event.
func (l *RSVPLedger) Count(eventID string) int {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	n := 0
	for k := range l.s.rsvps {
		if k.eventID == eventID {
			n++
		}
	}
	return n
}
