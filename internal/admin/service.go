// Package admin exposes the cross-vendor reporting surface: listings,
// per-vendor KPIs and the XLSX export.
package admin

import (
	"context"
	"fmt"
	"sort"

	"quotes-backend/internal/quotes"
	"quotes-backend/internal/vendors"
)

// Item is one quote enriched with its vendor for admin listings.
type Item struct {
	Quote       quotes.Quote
	VendorName  string
	VendorEmail string
}

// VendorKPI aggregates one vendor's pipeline.
type VendorKPI struct {
	VendorID      string  `json:"vendorId"`
	VendorName    string  `json:"vendorName"`
	Quotes        int     `json:"quotes"`
	Pending       int     `json:"pending"`
	Closed        int     `json:"closed"`
	Lost          int     `json:"lost"`
	TotalCents    int64   `json:"totalCents"`
	ClosedCents   int64   `json:"closedCents"`
	ConversionPct float64 `json:"conversionPct"`
}

// Service backs the admin endpoints.
type Service struct {
	Quotes  quotes.Repo
	Vendors vendors.Repo
}

func NewService(quoteRepo quotes.Repo, vendorRepo vendors.Repo) *Service {
	return &Service{Quotes: quoteRepo, Vendors: vendorRepo}
}

// ListItems returns quotes across vendors with vendor names attached.
func (s *Service) ListItems(ctx context.Context, filter quotes.AdminFilter) ([]Item, error) {
	list, err := s.Quotes.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	roster, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(list))
	for _, q := range list {
		v := roster[q.VendorID]
		items = append(items, Item{Quote: q, VendorName: v.DisplayName, VendorEmail: v.Email})
	}
	return items, nil
}

// KPIs aggregates the filtered quotes per vendor.
func (s *Service) KPIs(ctx context.Context, filter quotes.AdminFilter) ([]VendorKPI, error) {
	list, err := s.Quotes.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	roster, err := s.roster(ctx)
	if err != nil {
		return nil, err
	}

	byVendor := make(map[string]*VendorKPI)
	for _, q := range list {
		kpi, ok := byVendor[q.VendorID]
		if !ok {
			kpi = &VendorKPI{VendorID: q.VendorID, VendorName: roster[q.VendorID].DisplayName}
			byVendor[q.VendorID] = kpi
		}
		kpi.Quotes++
		kpi.TotalCents += q.Total.Cents
		switch q.Status {
		case quotes.StatusPending:
			kpi.Pending++
		case quotes.StatusClosed:
			kpi.Closed++
			kpi.ClosedCents += q.Total.Cents
		case quotes.StatusLost:
			kpi.Lost++
		}
	}

	out := make([]VendorKPI, 0, len(byVendor))
	for _, kpi := range byVendor {
		if kpi.Quotes > 0 {
			kpi.ConversionPct = 100 * float64(kpi.Closed) / float64(kpi.Quotes)
		}
		out = append(out, *kpi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VendorName < out[j].VendorName })
	return out, nil
}

func (s *Service) roster(ctx context.Context) (map[string]vendors.Vendor, error) {
	list, err := s.Vendors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	roster := make(map[string]vendors.Vendor, len(list))
	for _, v := range list {
		roster[v.ID] = v
	}
	return roster, nil
}
