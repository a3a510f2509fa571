// Package vendors manages salesperson identities and their delegated
// Google Calendar credentials.
package vendors

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("vendor not found")
	// ErrNotAuthorized means the salesperson never completed the Google
	// consent flow, so no calendar can be written for them.
	ErrNotAuthorized = errors.New("vendor has not authorized calendar access")
)

// Vendor is one salesperson known to the system.
type Vendor struct {
	ID          string
	Email       string
	DisplayName string
	Timezone    string
	CreatedAt   time.Time
}
