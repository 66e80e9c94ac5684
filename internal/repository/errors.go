// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between failure scenarios without inspecting driver errors.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches the requested key.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write would violate a uniqueness or
// capacity invariant.  More specific conflicts wrap it.
var ErrConflict = errors.New("conflict")

// ErrAlreadyRSVPd is returned when the user already holds an RSVP for the event.
var ErrAlreadyRSVPd = fmt.Errorf("%w: already rsvped", ErrConflict)

// ErrCapacityReached is returned when an event has no free places left.
var ErrCapacityReached = fmt.Errorf("%w: event is full", ErrConflict)

// ErrEmailExists is returned when registering an address that is taken.
var ErrEmailExists = fmt.Errorf("%w: email already exists", ErrConflict)

// ErrEventPast is returned when signing up for an event whose status is past.
var ErrEventPast = errors.New("event is in the past")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
