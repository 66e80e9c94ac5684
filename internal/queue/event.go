// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// ActivityQueueName is the durable queue carrying RSVP and event activity.
const ActivityQueueName = "events.activity"

// Activity types published on ActivityQueueName.
const (
	TypeRSVPCreated   = "rsvp.created"
	TypeRSVPCancelled = "rsvp.cancelled"
	TypeEventDeleted  = "event.deleted"
)

// ActivityEvent is published after an RSVP or event change has been
// committed.  It carries enough information for downstream consumers to
// log or notify without querying the primary database.
type ActivityEvent struct {
	Type       string `json:"type"`
	EventID    string `json:"event_id"`
	UserID     int64  `json:"user_id"`
	OccurredAt string `json:"occurred_at"`
}
