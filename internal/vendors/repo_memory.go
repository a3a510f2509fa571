package vendors

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// MemoryRepo is an in-memory Repo used in dev mode and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	vendors map[string]Vendor       // keyed by vendor ID
	tokens  map[string]oauth2.Token // keyed by vendor ID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		vendors: make(map[string]Vendor),
		tokens:  make(map[string]oauth2.Token),
	}
}

func (r *MemoryRepo) UpsertByEmail(_ context.Context, v Vendor) (Vendor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.vendors {
		if existing.Email == v.Email {
			existing.DisplayName = v.DisplayName
			r.vendors[id] = existing
			return existing, nil
		}
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	r.vendors[v.ID] = v
	return v, nil
}

func (r *MemoryRepo) GetByID(_ context.Context, id string) (Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vendors[id]
	if !ok {
		return Vendor{}, ErrNotFound
	}
	return v, nil
}

func (r *MemoryRepo) List(_ context.Context) ([]Vendor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Vendor, 0, len(r.vendors))
	for _, v := range r.vendors {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func (r *MemoryRepo) SaveToken(_ context.Context, vendorID string, tok *oauth2.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[vendorID] = *tok
	return nil
}

func (r *MemoryRepo) LoadToken(_ context.Context, vendorID string) (*oauth2.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tok, ok := r.tokens[vendorID]
	if !ok {
		return nil, ErrNotAuthorized
	}
	copied := tok
	return &copied, nil
}

var _ Repo = (*MemoryRepo)(nil)
