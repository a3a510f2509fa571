package quotes

import (
	"context"
	"time"
)

// AdminFilter narrows cross-vendor listings on the admin surface.
type AdminFilter struct {
	VendorID string
	Status   string
	From     time.Time
	To       time.Time
	Limit    int
}

// Repo defines persistence operations for quotes.
type Repo interface {
	// Create inserts a new quote. It returns ErrDuplicate when the vendor
	// already has a quote with the same number.
	Create(ctx context.Context, q Quote) error
	GetByID(ctx context.Context, vendorID, id string) (Quote, error)
	// FindExisting reports a prior upload matching either the quote number
	// or the PDF checksum for the vendor.
	FindExisting(ctx context.Context, vendorID, quoteNumber, pdfSHA256 string) (Quote, bool, error)
	ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]Quote, error)
	UpdateWorkflow(ctx context.Context, vendorID, id, summary, notes, status string) error
	// SetEvents replaces the stored calendar event references; nil clears them.
	SetEvents(ctx context.Context, vendorID, id string, events []EventRef) error
	ListAll(ctx context.Context, filter AdminFilter) ([]Quote, error)
}
