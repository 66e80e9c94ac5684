package model

import "time"

// RSVPStatus is the attendance intent recorded for a user.  Only "going" is
// accepted today.
type RSVPStatus string

const RSVPGoing RSVPStatus = "going"

// RSVP records a user's intent to attend an event.  There is at most one
// row per (EventID, UserID); the pair is guarded by a UNIQUE key.
//
// Fields:
//  ID        – auto-increment id, used as the pagination watermark for a user's RSVPs.
//  EventID   – event being attended.
//  UserID    – user who signed up.
//  Status    – attendance intent.
//  CreatedAt – creation timestamp.
type RSVP struct {
	ID        uint64     // event_rsvps.id
	EventID   string     // event_rsvps.event_id
	UserID    int64      // event_rsvps.user_id
	Status    RSVPStatus // event_rsvps.status
	CreatedAt time.Time  // event_rsvps.created_at
}

// UserRSVP is an RSVP joined with the event it refers to.
type UserRSVP struct {
	RSVP  RSVP
	Event Event
}
