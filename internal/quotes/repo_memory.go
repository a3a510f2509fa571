package quotes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo used in dev mode and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	quotes map[string]Quote // keyed by quote ID
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{quotes: make(map[string]Quote)}
}

func (r *MemoryRepo) Create(_ context.Context, q Quote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.quotes {
		if existing.VendorID == q.VendorID && existing.QuoteNumber == q.QuoteNumber {
			return ErrDuplicate
		}
	}
	if q.Status == "" {
		q.Status = StatusPending
	}
	r.quotes[q.ID] = q
	return nil
}

func (r *MemoryRepo) GetByID(_ context.Context, vendorID, id string) (Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[id]
	if !ok || q.VendorID != vendorID {
		return Quote{}, ErrNotFound
	}
	return q, nil
}

func (r *MemoryRepo) FindExisting(_ context.Context, vendorID, quoteNumber, pdfSHA256 string) (Quote, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		found Quote
		ok    bool
	)
	for _, q := range r.quotes {
		if q.VendorID != vendorID {
			continue
		}
		if q.QuoteNumber != quoteNumber && q.PDFSHA256 != pdfSHA256 {
			continue
		}
		if !ok || q.CreatedAt.Before(found.CreatedAt) {
			found = q
			ok = true
		}
	}
	return found, ok, nil
}

func (r *MemoryRepo) ListByVendor(_ context.Context, vendorID string, limit, offset int) ([]Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Quote
	for _, q := range r.quotes {
		if q.VendorID == vendorID {
			out = append(out, q)
		}
	}
	sortNewestFirst(out)
	return page(out, limit, offset), nil
}

func (r *MemoryRepo) UpdateWorkflow(_ context.Context, vendorID, id, summary, notes, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.VendorID != vendorID {
		return ErrNotFound
	}
	q.Summary = summary
	q.Notes = notes
	q.Status = status
	q.UpdatedAt = time.Now().UTC()
	r.quotes[id] = q
	return nil
}

func (r *MemoryRepo) SetEvents(_ context.Context, vendorID, id string, events []EventRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok || q.VendorID != vendorID {
		return ErrNotFound
	}
	q.Events = events
	q.UpdatedAt = time.Now().UTC()
	r.quotes[id] = q
	return nil
}

func (r *MemoryRepo) ListAll(_ context.Context, filter AdminFilter) ([]Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Quote
	for _, q := range r.quotes {
		if filter.VendorID != "" && q.VendorID != filter.VendorID {
			continue
		}
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		if !filter.From.IsZero() && q.IssueDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && q.IssueDate.After(filter.To) {
			continue
		}
		out = append(out, q)
	}
	sortNewestFirst(out)
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	return page(out, limit, 0), nil
}

func sortNewestFirst(qs []Quote) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].CreatedAt.Equal(qs[j].CreatedAt) {
			return qs[i].ID < qs[j].ID
		}
		return qs[i].CreatedAt.After(qs[j].CreatedAt)
	})
}

func page(qs []Quote, limit, offset int) []Quote {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(qs) {
		return nil
	}
	end := offset + limit
	if end > len(qs) {
		end = len(qs)
	}
	return qs[offset:end]
}

var _ Repo = (*MemoryRepo)(nil)
