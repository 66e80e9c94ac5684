package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mindset-app/mindset-backend/internal/metrics"
	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/pagination"
	q "github.com/mindset-app/mindset-backend/internal/queue"
	"github.com/mindset-app/mindset-backend/internal/repository"
)

// RSVPLedger is the persistence the RSVP service needs.  Create must apply
// the existence, past, duplicate and capacity checks atomically; the MySQL
// implementation is repository.RSVPRepo.
type RSVPLedger interface {
	Create(ctx context.Context, eventID string, userID int64, now time.Time) (*model.RSVP, error)
	Get(ctx context.Context, eventID string, userID int64) (*model.RSVP, error)
	Delete(ctx context.Context, eventID string, userID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, limit int, before uint64) ([]model.UserRSVP, error)
}

// RSVPPage is one page of the caller's RSVPs.
type RSVPPage struct {
	Items      []model.UserRSVP
	NextCursor *string
}

type RSVPService struct {
	ledger RSVPLedger
	pub    Publisher
	Now    func() time.Time
}

func NewRSVPService(ledger RSVPLedger, pub Publisher) *RSVPService {
	if ledger == nil {
		panic("nil rsvp ledger passed to NewRSVPService")
	}
	if pub == nil {
		pub = NopPublisher{}
	}
	return &RSVPService{ledger: ledger, pub: pub, Now: time.Now}
}

func (s *RSVPService) now() time.Time { return s.Now().UTC().Truncate(time.Second) }

// Create signs userID up for eventID.  status must be "going".
func (s *RSVPService) Create(ctx context.Context, eventID string, userID int64, status string) (*model.RSVP, error) {
	if model.RSVPStatus(status) != model.RSVPGoing {
		return nil, fmt.Errorf("%w: status must be going", ErrValidation)
	}
	rv, err := s.ledger.Create(ctx, eventID, userID, s.now())
	if err != nil {
		outcome, mapped := rsvpError(err)
		metrics.RSVPOutcomes.WithLabelValues(outcome).Inc()
		return nil, mapped
	}
	metrics.RSVPOutcomes.WithLabelValues("created").Inc()
	notify(s.pub, q.ActivityEvent{
		Type:       q.TypeRSVPCreated,
		EventID:    eventID,
		UserID:     userID,
		OccurredAt: pagination.FormatTime(rv.CreatedAt),
	})
	return rv, nil
}

func rsvpError(err error) (string, error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found", fmt.Errorf("%w: event not found", ErrNotFound)
	case errors.Is(err, repository.ErrEventPast):
		return "past", fmt.Errorf("%w: event has already taken place", ErrValidation)
	case errors.Is(err, repository.ErrAlreadyRSVPd):
		return "duplicate", fmt.Errorf("%w: already rsvped", ErrConflict)
	case errors.Is(err, repository.ErrCapacityReached):
		return "full", fmt.Errorf("%w: event is full", ErrConflict)
	}
	return "error", err
}

// Cancel removes the caller's RSVP.  Cancelling twice is not an error.
func (s *RSVPService) Cancel(ctx context.Context, eventID string, userID int64) error {
	deleted, err := s.ledger.Delete(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if deleted {
		metrics.RSVPOutcomes.WithLabelValues("cancelled").Inc()
		notify(s.pub, q.ActivityEvent{
			Type:       q.TypeRSVPCancelled,
			EventID:    eventID,
			UserID:     userID,
			OccurredAt: pagination.FormatTime(s.now()),
		})
	}
	return nil
}

// Get returns the caller's RSVP for an event.
func (s *RSVPService) Get(ctx context.Context, eventID string, userID int64) (*model.RSVP, error) {
	rv, err := s.ledger.Get(ctx, eventID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: no rsvp for this event", ErrNotFound)
	}
	return rv, err
}

// ListMine pages through the caller's RSVPs, newest first.  The cursor is
// the id of the last RSVP on the previous page.
func (s *RSVPService) ListMine(ctx context.Context, userID int64, limit int, rawCursor string) (RSVPPage, error) {
	limit = pagination.ClampLimit(limit)
	var before uint64
	if rawCursor != "" {
		id, err := pagination.DecodeRSVP(rawCursor)
		if err != nil {
			return RSVPPage{}, fmt.Errorf("%w: invalid cursor", ErrValidation)
		}
		before = id
	}
	items, err := s.ledger.ListByUser(ctx, userID, limit, before)
	if err != nil {
		return RSVPPage{}, err
	}
	page := RSVPPage{Items: items}
	if pagination.HasMore(len(items), limit) {
		next := pagination.EncodeRSVP(items[len(items)-1].RSVP.ID)
		page.NextCursor = &next
	}
	return page, nil
}
