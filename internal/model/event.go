package model

import "time"

// EventStatus is the write-time snapshot of where an event sits relative to
// the clock.  It is computed when an event is created or its start time is
// changed and is never transitioned by a background process, so a stored
// "upcoming" may lag behind wall-clock time until the next update.
type EventStatus string

const (
	EventUpcoming EventStatus = "upcoming"
	EventPast     EventStatus = "past"
)

// ParseEventStatus reports whether s is one of the accepted status values.
func ParseEventStatus(s string) (EventStatus, bool) {
	switch EventStatus(s) {
	case EventUpcoming, EventPast:
		return EventStatus(s), true
	}
	return "", false
}

// StatusAt derives the status of an event starting at startsAt as observed
// at now.  Only a start strictly after now is upcoming.
func StatusAt(startsAt, now time.Time) EventStatus {
	if startsAt.After(now) {
		return EventUpcoming
	}
	return EventPast
}

// Event represents a row in the `events` table.  All timestamps are UTC
// and truncated to whole seconds before they are stored.
//
// Fields:
//  ID        – opaque UUID string assigned at creation.
//  Title     – display title (non-empty).
//  Type      – free-form category such as "workshop" (non-empty).
//  StartsAt  – when the event begins.
//  Host      – who runs the event (non-empty).
//  Status    – upcoming or past, see EventStatus.
//  Capacity  – maximum number of RSVPs; nil means unlimited.
//  CreatedBy – id of the admin who created the event.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last mutation timestamp.
type Event struct {
	ID        string      // events.id
	Title     string      // events.title
	Type      string      // events.type
	StartsAt  time.Time   // events.starts_at
	Host      string      // events.host
	Status    EventStatus // events.status
	Capacity  *int        // events.capacity (nullable)
	CreatedBy int64       // events.created_by
	CreatedAt time.Time   // events.created_at
	UpdatedAt time.Time   // events.updated_at
}

// EventChanges is a validated partial update.  A nil pointer leaves the
// column untouched.  Capacity is applied only when CapacitySet is true, in
// which case a nil Capacity clears the limit.
type EventChanges struct {
	Title       *string
	Type        *string
	StartsAt    *time.Time
	Host        *string
	Status      *EventStatus
	Capacity    *int
	CapacitySet bool
}

// Empty reports whether the change set would not modify any column.
func (c EventChanges) Empty() bool {
	return c.Title == nil && c.Type == nil && c.StartsAt == nil &&
		c.Host == nil && c.Status == nil && !c.CapacitySet
}
