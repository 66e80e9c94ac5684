package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/mindset-app/mindset-backend/internal/model"
	"github.com/mindset-app/mindset-backend/internal/pagination"
	q "github.com/mindset-app/mindset-backend/internal/queue"
)

func TestCreateEventDerivesStatus(t *testing.T) {
	tests := []struct {
		startsAt string
		want     model.EventStatus
	}{
		{"2099-01-01T00:00:00Z", model.EventUpcoming},
		{"2000-01-01T00:00:00Z", model.EventPast},
		{"2025-06-01T12:00:01Z", model.EventUpcoming},
		{"2025-06-01T12:00:00Z", model.EventPast},
		{"2025-06-01T14:00:00+02:00", model.EventPast},
		{"2025-06-01T12:30:00", model.EventUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.startsAt, func(t *testing.T) {
			f := newFixture(t)
			ev := f.mustCreate(t, CreateEventInput{StartsAt: tt.startsAt})
			if ev.Status != tt.want {
				t.Fatalf("status = %q, want %q", ev.Status, tt.want)
			}
			if ev.StartsAt.Location() != time.UTC {
				t.Fatalf("startsAt not in UTC: %v", ev.StartsAt)
			}
		})
	}
}

func TestCreateEventStoresFullRecord(t *testing.T) {
	f := newFixture(t)
	ev := f.mustCreate(t, CreateEventInput{
		Title:    "Sound bath",
		Type:     "session",
		Host:     "Ana",
		StartsAt: "2025-07-01T18:30:00.750Z",
		Capacity: json.RawMessage(`12`),
	})
	got, err := f.events.Get(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := model.Event{
		ID:        "evt-a",
		Title:     "Sound bath",
		Type:      "session",
		StartsAt:  time.Date(2025, 7, 1, 18, 30, 0, 0, time.UTC),
		Host:      "Ana",
		Status:    model.EventUpcoming,
		Capacity:  intPtr(12),
		CreatedBy: admin.UserID,
		CreatedAt: f.clock.t,
		UpdatedAt: f.clock.t,
	}
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("stored event\n got %+v\nwant %+v", *got, want)
	}
}

func TestCreateEventRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	for _, role := range []model.Role{model.RoleUser, model.RoleMember, model.RoleModerator} {
		_, err := f.events.Create(context.Background(), CreateEventInput{
			Title: "x", Type: "x", Host: "x", StartsAt: "2099-01-01T00:00:00Z",
		}, Identity{UserID: 9, Role: role})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("role %s: err = %v, want ErrForbidden", role, err)
		}
	}
}

func TestCreateEventValidation(t *testing.T) {
	valid := CreateEventInput{Title: "t", Type: "y", Host: "h", StartsAt: "2099-01-01T00:00:00Z"}
	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
	}{
		{"missing title", func(in *CreateEventInput) { in.Title = "" }},
		{"missing type", func(in *CreateEventInput) { in.Type = "" }},
		{"missing host", func(in *CreateEventInput) { in.Host = "" }},
		{"missing startsAt", func(in *CreateEventInput) { in.StartsAt = "" }},
		{"bad startsAt", func(in *CreateEventInput) { in.StartsAt = "next tuesday" }},
		{"negative capacity", func(in *CreateEventInput) { in.Capacity = json.RawMessage(`-1`) }},
		{"fractional capacity", func(in *CreateEventInput) { in.Capacity = json.RawMessage(`2.5`) }},
		{"text capacity", func(in *CreateEventInput) { in.Capacity = json.RawMessage(`"ten"`) }},
		{"bool capacity", func(in *CreateEventInput) { in.Capacity = json.RawMessage(`true`) }},
		{"object capacity", func(in *CreateEventInput) { in.Capacity = json.RawMessage(`{"n":1}`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := valid
			tt.mutate(&in)
			_, err := f.events.Create(context.Background(), in, admin)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestParseCapacity(t *testing.T) {
	tests := []struct {
		raw  string
		want *int
	}{
		{``, nil},
		{`null`, nil},
		{`0`, intPtr(0)},
		{`25`, intPtr(25)},
		{`25.0`, intPtr(25)},
		{`"40"`, intPtr(40)},
		{`" 7 "`, intPtr(7)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseCapacity(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("parseCapacity(%s): %v", tt.raw, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseCapacity(%s) = %v, want %v", tt.raw, deref(got), deref(tt.want))
			}
		})
	}
}

func TestUpdateEventPartial(t *testing.T) {
	f := newFixture(t)
	ev := f.mustCreate(t, CreateEventInput{StartsAt: "2025-09-01T10:00:00Z", Capacity: json.RawMessage(`3`)})
	f.clock.advance(time.Minute)

	got, err := f.events.Update(context.Background(), ev.ID, EventPatch{"host": json.RawMessage(`"X"`)}, admin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := *ev
	want.Host = "X"
	want.UpdatedAt = f.clock.t
	if !reflect.DeepEqual(*got, want) {
		t.Fatalf("after update\n got %+v\nwant %+v", *got, want)
	}
}

func TestUpdateEventStatus(t *testing.T) {
	tests := []struct {
		name  string
		patch EventPatch
		want  model.EventStatus
	}{
		{"new past start recomputes", EventPatch{"startsAt": json.RawMessage(`"2001-01-01T00:00:00Z"`)}, model.EventPast},
		{"new future start recomputes", EventPatch{"startsAt": json.RawMessage(`"2098-01-01T00:00:00Z"`)}, model.EventUpcoming},
		{"explicit status wins", EventPatch{
			"startsAt": json.RawMessage(`"2001-01-01T00:00:00Z"`),
			"status":   json.RawMessage(`"upcoming"`),
		}, model.EventUpcoming},
		{"status alone", EventPatch{"status": json.RawMessage(`"past"`)}, model.EventPast},
		{"other field keeps status", EventPatch{"title": json.RawMessage(`"Renamed"`)}, model.EventUpcoming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})
			got, err := f.events.Update(context.Background(), ev.ID, tt.patch, admin)
			if err != nil {
				t.Fatalf("update: %v", err)
			}
			if got.Status != tt.want {
				t.Fatalf("status = %q, want %q", got.Status, tt.want)
			}
		})
	}
}

func TestUpdateEventCapacity(t *testing.T) {
	f := newFixture(t)
	ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z", Capacity: json.RawMessage(`3`)})

	got, err := f.events.Update(context.Background(), ev.ID, EventPatch{"capacity": json.RawMessage(`"8"`)}, admin)
	if err != nil || got.Capacity == nil || *got.Capacity != 8 {
		t.Fatalf("set capacity: %v %v", deref(got.Capacity), err)
	}
	got, err = f.events.Update(context.Background(), ev.ID, EventPatch{"capacity": json.RawMessage(`null`)}, admin)
	if err != nil || got.Capacity != nil {
		t.Fatalf("clear capacity: %v %v", deref(got.Capacity), err)
	}
}

func TestUpdateEventRejects(t *testing.T) {
	tests := []struct {
		name  string
		patch EventPatch
	}{
		{"empty", EventPatch{}},
		{"unknown keys only", EventPatch{"colour": json.RawMessage(`"red"`)}},
		{"empty title", EventPatch{"title": json.RawMessage(`""`)}},
		{"null host", EventPatch{"host": json.RawMessage(`null`)}},
		{"numeric type", EventPatch{"type": json.RawMessage(`3`)}},
		{"bad status", EventPatch{"status": json.RawMessage(`"cancelled"`)}},
		{"bad startsAt", EventPatch{"startsAt": json.RawMessage(`"soon"`)}},
		{"negative capacity", EventPatch{"capacity": json.RawMessage(`-4`)}},
		{"valid field with invalid field", EventPatch{
			"title":    json.RawMessage(`"Renamed"`),
			"capacity": json.RawMessage(`1.5`),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})
			_, err := f.events.Update(context.Background(), ev.ID, tt.patch, admin)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			stored, err := f.events.Get(context.Background(), ev.ID)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(stored, ev) {
				t.Fatalf("event changed after rejected update: %+v", stored)
			}
		})
	}
}

func TestUpdateEventNotFoundAndForbidden(t *testing.T) {
	f := newFixture(t)
	patch := EventPatch{"title": json.RawMessage(`"x"`)}
	if _, err := f.events.Update(context.Background(), "nope", patch, admin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing event: err = %v, want ErrNotFound", err)
	}
	if _, err := f.events.Update(context.Background(), "nope", patch, member); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin: err = %v, want ErrForbidden", err)
	}
}

func TestDeleteEventIsIdempotentAndCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ev := f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})
	if _, err := f.rsvps.Create(ctx, ev.ID, 7, "going"); err != nil {
		t.Fatalf("rsvp: %v", err)
	}

	if err := f.events.Delete(ctx, ev.ID, member); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin delete: err = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.events.Delete(ctx, ev.ID, admin); err != nil {
			t.Fatalf("delete #%d: %v", i+1, err)
		}
	}
	if _, err := f.events.Get(ctx, ev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v", err)
	}
	if n := f.store.RSVPs().Count(ev.ID); n != 0 {
		t.Fatalf("%d rsvps survived delete", n)
	}
	want := []string{q.TypeRSVPCreated, q.TypeEventDeleted}
	if got := f.pub.types(); !reflect.DeepEqual(got, want) {
		t.Fatalf("published %v, want %v", got, want)
	}
}

func seedListing(t *testing.T, f *fixture) []string {
	t.Helper()
	// evt-b and evt-c share a start time so the id tie-breaker matters.
	starts := []string{
		"2099-03-01T09:00:00Z",
		"2099-05-01T09:00:00Z",
		"2099-05-01T09:00:00Z",
		"2099-01-01T09:00:00Z",
		"2099-04-01T09:00:00Z",
	}
	for _, s := range starts {
		f.mustCreate(t, CreateEventInput{StartsAt: s})
	}
	f.mustCreate(t, CreateEventInput{StartsAt: "2001-01-01T00:00:00Z"})
	return []string{"evt-c", "evt-b", "evt-e", "evt-a", "evt-d"}
}

func collect(t *testing.T, f *fixture, limit int) (ids []string, pages int) {
	t.Helper()
	cursor := ""
	for {
		page, err := f.events.ListEvents(context.Background(), "", limit, cursor)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		pages++
		for _, ev := range page.Items {
			ids = append(ids, ev.ID)
		}
		if page.NextCursor == nil {
			return ids, pages
		}
		if pages > 20 {
			t.Fatal("pagination did not terminate")
		}
		cursor = *page.NextCursor
	}
}

func TestListEventsConcatenation(t *testing.T) {
	tests := []struct {
		limit, pages int
	}{
		{1, 6},
		{2, 3},
		{5, 2},
		{20, 1},
	}
	for _, tt := range tests {
		f := newFixture(t)
		want := seedListing(t, f)
		got, pages := collect(t, f, tt.limit)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("limit %d: ids %v, want %v", tt.limit, got, want)
		}
		if pages != tt.pages {
			t.Fatalf("limit %d: %d pages, want %d", tt.limit, pages, tt.pages)
		}
	}
}

func TestListEventsTwoPagesOfOne(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, CreateEventInput{StartsAt: "2099-01-01T00:00:00Z"})
	f.mustCreate(t, CreateEventInput{StartsAt: "2099-02-01T00:00:00Z"})
	f.mustCreate(t, CreateEventInput{StartsAt: "2098-01-01T00:00:00Z"})

	first, err := f.events.ListEvents(ctx, "upcoming", 1, "")
	if err != nil || len(first.Items) != 1 || first.NextCursor == nil {
		t.Fatalf("first page: %+v %v", first, err)
	}
	second, err := f.events.ListEvents(ctx, "upcoming", 1, *first.NextCursor)
	if err != nil || len(second.Items) != 1 {
		t.Fatalf("second page: %+v %v", second, err)
	}
	if first.Items[0].ID != "evt-b" || second.Items[0].ID != "evt-a" {
		t.Fatalf("pages = %s, %s", first.Items[0].ID, second.Items[0].ID)
	}
	if *first.NextCursor != "evt-b|2099-02-01T00:00:00Z" {
		t.Fatalf("cursor = %q", *first.NextCursor)
	}
}

func TestListEventsStatusFilter(t *testing.T) {
	f := newFixture(t)
	seedListing(t, f)
	page, err := f.events.ListEvents(context.Background(), "past", 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "evt-f" || page.NextCursor != nil {
		t.Fatalf("past listing = %+v", page)
	}
	if _, err := f.events.ListEvents(context.Background(), "soon", 10, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad status: err = %v", err)
	}
}

func TestListEventsLegacyCursor(t *testing.T) {
	f := newFixture(t)
	seedListing(t, f)
	ctx := context.Background()

	page, err := f.events.ListEvents(ctx, "", 2, "evt-e")
	if err != nil {
		t.Fatalf("id-only cursor: %v", err)
	}
	var ids []string
	for _, ev := range page.Items {
		ids = append(ids, ev.ID)
	}
	if !reflect.DeepEqual(ids, []string{"evt-a", "evt-d"}) {
		t.Fatalf("ids after evt-e = %v", ids)
	}

	for _, bad := range []string{"missing-id", "evt-a|not-a-time", "|2099-01-01T00:00:00Z"} {
		if _, err := f.events.ListEvents(ctx, "", 2, bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("cursor %q: err = %v, want ErrValidation", bad, err)
		}
	}
}

func TestListEventsClampsLimit(t *testing.T) {
	f := newFixture(t)
	seedListing(t, f)
	page, err := f.events.ListEvents(context.Background(), "", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != pagination.MinLimit || page.NextCursor == nil {
		t.Fatalf("limit 0 gave %d items", len(page.Items))
	}
}

func intPtr(n int) *int { return &n }

func deref(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
