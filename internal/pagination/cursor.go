// Package pagination implements the keyset cursors and limit clamping used by
// the list endpoints.
//
// An event cursor is the string "<id>|<startsAt>" where startsAt is written as
// 2006-01-02T15:04:05Z.  Older clients may send a bare id; such cursors decode
// to the IDOnly kind and the caller must look up the event's start time to
// rebuild the position.
package pagination

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// TimeLayout is the wire format for timestamps in cursors and JSON bodies.
const TimeLayout = "2006-01-02T15:04:05Z"

const sep = "|"

// ErrInvalidCursor is returned when a cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// CursorKind tags which parts of the sort key a cursor carries.
type CursorKind int

const (
	// IDOnly cursors carry the event id and nothing else.
	IDOnly CursorKind = iota + 1
	// IDAndTimestamp cursors carry the full (starts_at, id) sort key.
	IDAndTimestamp
)

// EventCursor is a decoded event listing cursor.  StartsAt is the zero time
// for IDOnly cursors.
type EventCursor struct {
	Kind     CursorKind
	ID       string
	StartsAt time.Time
}

// Position is a fully resolved keyset position in the starts_at DESC, id DESC
// ordering.  Rows strictly after it satisfy
// starts_at < StartsAt OR (starts_at = StartsAt AND id < ID).
type Position struct {
	StartsAt time.Time
	ID       string
}

// Resolved returns the position for cursors that already carry a timestamp.
func (c EventCursor) Resolved() (Position, bool) {
	if c.Kind != IDAndTimestamp {
		return Position{}, false
	}
	return Position{StartsAt: c.StartsAt, ID: c.ID}, true
}

// EncodeEvent builds the cursor that points just past the given row.
func EncodeEvent(id string, startsAt time.Time) string {
	return id + sep + FormatTime(startsAt)
}

// DecodeEvent parses a cursor produced by EncodeEvent, or a bare id.
func DecodeEvent(raw string) (EventCursor, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return EventCursor{}, ErrInvalidCursor
	}
	id, ts, found := strings.Cut(raw, sep)
	if id == "" {
		return EventCursor{}, ErrInvalidCursor
	}
	if !found {
		return EventCursor{Kind: IDOnly, ID: id}, nil
	}
	t, err := ParseTime(ts)
	if err != nil {
		return EventCursor{}, ErrInvalidCursor
	}
	return EventCursor{Kind: IDAndTimestamp, ID: id, StartsAt: t}, nil
}

// EncodeRSVP renders an RSVP id watermark.
func EncodeRSVP(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// DecodeRSVP parses an RSVP id watermark.  Zero is rejected because no row
// has a smaller id.
func DecodeRSVP(raw string) (uint64, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidCursor
	}
	return n, nil
}

// FormatTime renders t in UTC at second precision with a trailing Z.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeLayout)
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts ISO-8601 timestamps with a Z or numeric offset, or
// without any zone (read as UTC), and returns the instant in UTC truncated
// to whole seconds.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05Z07:00", s); err == nil {
		return t.UTC().Truncate(time.Second), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.Truncate(time.Second), nil
		}
	}
	return time.Time{}, errors.New("invalid timestamp: " + s)
}
