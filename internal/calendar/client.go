// Package calendar wraps the salesperson's delegated Google Calendar with
// the small surface the scheduler needs.
package calendar

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// ErrConflict signals that an event with the same ID already exists, which
// the scheduler treats as success.
var ErrConflict = errors.New("calendar event already exists")

// Auth carries the delegated credentials for one salesperson's calendar.
type Auth struct {
	CalendarID string
	Tokens     oauth2.TokenSource
}

// Event is one reminder to place on a calendar. Key is both the idempotency
// key and the event ID.
type Event struct {
	Key         string
	Tag         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Created describes an event that exists on the calendar after a call.
type Created struct {
	EventID  string
	HTMLLink string
}

// Client is the calendar operations the scheduler and the workflow use.
type Client interface {
	// Find reports whether an event with the given key already exists.
	Find(ctx context.Context, auth Auth, key string) (Created, bool, error)
	// Insert creates the event under its key. It returns ErrConflict when
	// the key is already taken.
	Insert(ctx context.Context, auth Auth, ev Event) (Created, error)
	// Delete removes an event; deleting an already-gone event is not an
	// error.
	Delete(ctx context.Context, auth Auth, eventID string) error
}
