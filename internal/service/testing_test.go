package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mindset-app/mindset-backend/internal/model"
	q "github.com/mindset-app/mindset-backend/internal/queue"
	"github.com/mindset-app/mindset-backend/internal/repository/memstore"
)

var (
	admin  = Identity{UserID: 1, Role: model.RoleAdmin}
	member = Identity{UserID: 2, Role: model.RoleUser}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []q.ActivityEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev q.ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store  *memstore.Store
	events *EventService
	rsvps  *RSVPService
	pub    *recordingPublisher
	clock  *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	c := &clock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	events := NewEventService(store, pub)
	events.Now = c.now
	seq := 0
	events.NewID = func() string {
		seq++
		return "evt-" + string(rune('a'+seq-1))
	}
	rsvps := NewRSVPService(store.RSVPs(), pub)
	rsvps.Now = c.now
	return &fixture{store: store, events: events, rsvps: rsvps, pub: pub, clock: c}
}

func (f *fixture) mustCreate(t *testing.T, in CreateEventInput) *model.Event {
	t.Helper()
	if in.Title == "" {
		in.Title = "Breathwork"
	}
	if in.Type == "" {
		in.Type = "workshop"
	}
	if in.Host == "" {
		in.Host = "Sam"
	}
	ev, err := f.events.Create(context.Background(), in, admin)
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev
}
