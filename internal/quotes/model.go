package quotes

import (
	"fmt"
	"time"
)

// Quote statuses follow the sales workflow of the original CRM.
const (
	StatusPending = "pendiente"
	StatusClosed  = "cerrada"
	StatusLost    = "perdida"
)

// Money is a decimal amount in cents with its currency unit.
type Money struct {
	Cents    int64
	Currency string
}

// String renders the amount in es-AR convention: dots for thousands, comma
// for decimals, currency code appended.
func (m Money) String() string {
	whole := m.Cents / 100
	frac := m.Cents % 100
	if frac < 0 {
		frac = -frac
	}

	digits := fmt.Sprintf("%d", whole)
	var grouped []byte
	for i, c := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 && digits[i-1] != '-' {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, c)
	}
	return fmt.Sprintf("%s,%02d %s", grouped, frac, m.Currency)
}

// QuoteRecord is the validated, immutable extraction of one quotation PDF.
// All five fields are present and well-formed once constructed.
type QuoteRecord struct {
	QuoteNumber string
	IssueDate   time.Time // date only, UTC midnight
	VendorID    string    // resolved salesperson identity
	Salesperson string    // display text as printed on the PDF
	Customer    string
	Total       Money
}

// EventRef points at a created calendar event, kept so reminders can be
// cancelled when the quote closes.
type EventRef struct {
	Tag      string `json:"tag"`
	EventID  string `json:"event_id"`
	HTMLLink string `json:"html_link,omitempty"`
}

// Quote is the persisted quotation row.
type Quote struct {
	ID          string
	VendorID    string
	QuoteNumber string
	IssueDate   time.Time
	Customer    string
	Salesperson string
	Total       Money
	PDFSHA256   string
	StorageKey  string
	Status      string
	Summary     string
	Notes       string
	Events      []EventRef
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
