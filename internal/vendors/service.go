package vendors

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// DelegatedAccess is everything needed to write one salesperson's calendar.
type DelegatedAccess struct {
	VendorID   string
	CalendarID string
	Location   *time.Location
	Tokens     oauth2.TokenSource
}

// Service resolves salespeople and hands out delegated calendar access.
type Service struct {
	Repo            Repo
	OAuth           *oauth2.Config
	DefaultTimezone string
}

func NewService(repo Repo, oauthCfg *oauth2.Config, defaultTZ string) *Service {
	return &Service{Repo: repo, OAuth: oauthCfg, DefaultTimezone: defaultTZ}
}

// Register records a salesperson after sign-in and stores their OAuth token.
func (s *Service) Register(ctx context.Context, email, displayName string, tok *oauth2.Token) (Vendor, error) {
	v, err := s.Repo.UpsertByEmail(ctx, Vendor{
		Email:       email,
		DisplayName: displayName,
		Timezone:    s.DefaultTimezone,
	})
	if err != nil {
		return Vendor{}, err
	}
	if tok != nil {
		if err := s.Repo.SaveToken(ctx, v.ID, tok); err != nil {
			return Vendor{}, err
		}
	}
	return v, nil
}

// Access loads the stored token for a salesperson and wraps it in a
// refreshing source that writes renewed tokens back. Returns
// ErrNotAuthorized when the salesperson never granted calendar access.
func (s *Service) Access(ctx context.Context, vendorID string) (DelegatedAccess, error) {
	v, err := s.Repo.GetByID(ctx, vendorID)
	if err != nil {
		return DelegatedAccess{}, err
	}

	tok, err := s.Repo.LoadToken(ctx, vendorID)
	if err != nil {
		return DelegatedAccess{}, err
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return DelegatedAccess{}, ErrNotAuthorized
	}

	loc := s.location(v.Timezone)
	return DelegatedAccess{
		VendorID:   vendorID,
		CalendarID: "primary",
		Location:   loc,
		Tokens: &savingTokenSource{
			repo:     s.Repo,
			vendorID: vendorID,
			last:     tok,
			inner:    s.OAuth.TokenSource(ctx, tok),
		},
	}, nil
}

// Directory snapshots the vendor roster for salesperson resolution during
// validation.
func (s *Service) Directory(ctx context.Context) (Directory, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return Directory{}, err
	}
	dir := Directory{byName: make(map[string]string, 2*len(list))}
	for _, v := range list {
		if key := normalizeIdentity(v.DisplayName); key != "" {
			dir.byName[key] = v.ID
		}
		if key := normalizeIdentity(v.Email); key != "" {
			dir.byName[key] = v.ID
		}
	}
	return dir, nil
}

func (s *Service) location(tz string) *time.Location {
	for _, name := range []string{tz, s.DefaultTimezone} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// Directory maps salesperson text as printed on quotations to vendor IDs.
// It satisfies the identity set the validator expects.
type Directory struct {
	byName map[string]string
}

func (d Directory) Resolve(raw string) (string, bool) {
	id, ok := d.byName[normalizeIdentity(raw)]
	return id, ok
}

// normalizeIdentity folds case and whitespace so "juana pérez " matches
// "Juana Pérez".
func normalizeIdentity(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// savingTokenSource persists refreshed tokens so the next scheduling run
// does not redo the refresh round-trip.
type savingTokenSource struct {
	repo     Repo
	vendorID string
	inner    oauth2.TokenSource

	mu   sync.Mutex
	last *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.inner.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil && retrieveErr.Response.StatusCode == 400 {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}

	s.mu.Lock()
	changed := s.last == nil || tok.AccessToken != s.last.AccessToken
	s.last = tok
	s.mu.Unlock()

	if changed {
		// Best effort; a failed save only costs an extra refresh later.
		_ = s.repo.SaveToken(context.Background(), s.vendorID, tok)
	}
	return tok, nil
}
