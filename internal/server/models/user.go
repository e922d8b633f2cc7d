// Package models holds the persisted entities of the alert server.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a user account. The only transition is
// StatusActive -> StatusArchived, and it is terminal.
type Status int

const (
	StatusActive Status = iota + 1
	StatusArchived
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusArchived:
		return "archived"
	default:
		return "all"
	}
}

// ParseStatus maps "active", "archived" and "all" (or "") to a Status.
// "all" yields the zero Status, which list filters treat as no filter.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StatusActive, nil
	case "archived":
		return StatusArchived, nil
	case "", "all":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown status %q", s)
	}
}

// User is a row of the users table. Password is the opaque credential hash
// and never plaintext. ArchivedAt is nil while the account is active.
type User struct {
	ID         string     `db:"id" json:"id"`
	UserName   string     `db:"username" json:"username"`
	Password   string     `db:"user_password" json:"-"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at"`
}

func (u *User) Status() Status {
	if u.ArchivedAt != nil {
		return StatusArchived
	}
	return StatusActive
}

func (u *User) IsArchived() bool {
	return u.Status() == StatusArchived
}

// ListFilter selects users for listing. A zero Status lists every record;
// a zero Limit means no limit.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Timestamp normalizes t to the precision stored by the database
// (microseconds, UTC) so that written and re-read values compare equal.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NextUpdatedAt returns the updated_at value for a mutation happening at now.
// It is strictly after prev even when the clock has not moved past it.
func NextUpdatedAt(prev, now time.Time) time.Time {
	next := Timestamp(now)
	if !next.After(prev) {
		next = prev.Add(time.Microsecond)
	}
	return next
}
