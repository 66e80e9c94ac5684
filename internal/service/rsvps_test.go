package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/mindset-app/mindset-backend/internal/model"
)

func TestRSVPScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("past event rejects rsvp", func(t *testing.T) {
		f := newFixture(t)
		ev := f.mustCreate(t, CreateEventInput{StartsAt: "2000-01-01T00:00:00Z"})
		if ev.Status != model.EventPast {
			t.Fatalf("status = %q", ev.Status)
		}
		if _, err := f.rsvps.Create(ctx, ev.ID, 10, "going"); !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("capacity one", func(t *testing.T) {
		f := newFixture(t)
		ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z", Capacity: json.RawMessage(`1`)})
		rv, err := f.rsvps.Create(ctx, ev.ID, 10, "going")
		if err != nil {
			t.Fatalf("first rsvp: %v", err)
		}
		if rv.EventID != ev.ID || rv.UserID != 10 || rv.Status != model.RSVPGoing {
			t.Fatalf("rsvp = %+v", rv)
		}
		if _, err := f.rsvps.Create(ctx, ev.ID, 11, "going"); !errors.Is(err, ErrConflict) {
			t.Fatalf("second user: err = %v, want ErrConflict", err)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t)
		ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})
		if _, err := f.rsvps.Create(ctx, ev.ID, 10, "going"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.rsvps.Create(ctx, ev.ID, 10, "going"); !errors.Is(err, ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("zero capacity", func(t *testing.T) {
		f := newFixture(t)
		ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z", Capacity: json.RawMessage(`0`)})
		if _, err := f.rsvps.Create(ctx, ev.ID, 10, "going"); !errors.Is(err, ErrConflict) {
			t.Fatalf("err = %v, want ErrConflict", err)
		}
	})

	t.Run("missing event", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.rsvps.Create(ctx, "nope", 10, "going"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("status must be going", func(t *testing.T) {
		f := newFixture(t)
		ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})
		for _, status := range []string{"", "maybe", "GOING"} {
			if _, err := f.rsvps.Create(ctx, ev.ID, 10, status); !errors.Is(err, ErrValidation) {
				t.Fatalf("status %q: err = %v, want ErrValidation", status, err)
			}
		}
	})
}

func TestRSVPConcurrentCapacity(t *testing.T) {
	const (
		capacity = 3
		users    = 25
	)
	f := newFixture(t)
	ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z", Capacity: json.RawMessage(`3`)})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		conflicts int
	)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			_, err := f.rsvps.Create(context.Background(), ev.ID, uid, "going")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(100 + i))
	}
	wg.Wait()
	if created != capacity || conflicts != users-capacity {
		t.Fatalf("created=%d conflicts=%d", created, conflicts)
	}
	if n := f.store.RSVPs().Count(ev.ID); n != capacity {
		t.Fatalf("%d rows stored, want %d", n, capacity)
	}
}

func TestRSVPConcurrentDuplicate(t *testing.T) {
	f := newFixture(t)
	ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.rsvps.Create(context.Background(), ev.ID, 42, "going")
			if err != nil && !errors.Is(err, ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if created != 1 {
		t.Fatalf("%d rsvps created for one user", created)
	}
}

func TestRSVPCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})
	if _, err := f.rsvps.Create(ctx, ev.ID, 10, "going"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.rsvps.Get(ctx, ev.ID, 10); err != nil {
		t.Fatalf("get: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.rsvps.Cancel(ctx, ev.ID, 10); err != nil {
			t.Fatalf("cancel #%d: %v", i+1, err)
		}
	}
	if err := f.rsvps.Cancel(ctx, "never-existed", 10); err != nil {
		t.Fatalf("cancel on missing event: %v", err)
	}
	if _, err := f.rsvps.Get(ctx, ev.ID, 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after cancel: err = %v", err)
	}
	want := []string{"rsvp.created", "rsvp.cancelled"}
	if got := f.pub.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	// the slot is free again
	if _, err := f.rsvps.Create(ctx, ev.ID, 10, "going"); err != nil {
		t.Fatalf("re-rsvp: %v", err)
	}
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var events []string
	for _, s := range []string{"2099-01-01T00:00:00Z", "2099-02-01T00:00:00Z", "2099-03-01T00:00:00Z"} {
		ev := f.mustCreate(t, CreateEventInput{StartsAt: s})
		events = append(events, ev.ID)
		if _, err := f.rsvps.Create(ctx, ev.ID, 10, "going"); err != nil {
			t.Fatal(err)
		}
		if _, err := f.rsvps.Create(ctx, ev.ID, 11, "going"); err != nil {
			t.Fatal(err)
		}
	}

	var (
		got    []string
		cursor string
		pages  int
	)
	for {
		page, err := f.rsvps.ListMine(ctx, 10, 2, cursor)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		pages++
		for _, item := range page.Items {
			if item.RSVP.UserID != 10 || item.Event.ID != item.RSVP.EventID {
				t.Fatalf("bad item %+v", item)
			}
			got = append(got, item.Event.ID)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = *page.NextCursor
	}
	want := []string{events[2], events[1], events[0]}
	if !reflect.DeepEqual(got, want) || pages != 2 {
		t.Fatalf("got %v in %d pages, want %v in 2", got, pages, want)
	}

	for _, bad := range []string{"abc", "0", "-3"} {
		if _, err := f.rsvps.ListMine(ctx, 10, 2, bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("cursor %q: err = %v", bad, err)
		}
	}
}
