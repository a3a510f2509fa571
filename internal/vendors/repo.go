package vendors

import (
	"context"

	"golang.org/x/oauth2"
)

// Repo persists vendors and their OAuth tokens.
type Repo interface {
	// UpsertByEmail creates the vendor on first sign-in and refreshes the
	// display name afterwards. It returns the stored row.
	UpsertByEmail(ctx context.Context, v Vendor) (Vendor, error)
	GetByID(ctx context.Context, id string) (Vendor, error)
	List(ctx context.Context) ([]Vendor, error)
	SaveToken(ctx context.Context, vendorID string, tok *oauth2.Token) error
	// LoadToken returns ErrNotAuthorized when no token is stored.
	LoadToken(ctx context.Context, vendorID string) (*oauth2.Token, error)
}
