package quotes

import (
	"context"
	"fmt"

	"quotes-backend/internal/calendar"
	"quotes-backend/internal/shared/telemetry"
	"quotes-backend/internal/vendors"
)

// CalendarAccess hands out delegated credentials for a salesperson.
type CalendarAccess interface {
	Access(ctx context.Context, vendorID string) (vendors.DelegatedAccess, error)
}

// WorkflowUpdate carries the vendor-editable fields of a quote. Nil fields
// are left untouched.
type WorkflowUpdate struct {
	Summary *string
	Notes   *string
	Status  *string
}

// Service implements the sales workflow over stored quotes.
type Service struct {
	Repo     Repo
	Vendors  CalendarAccess
	Calendar calendar.Client
}

func NewService(repo Repo, access CalendarAccess, cal calendar.Client) *Service {
	return &Service{Repo: repo, Vendors: access, Calendar: cal}
}

func (s *Service) List(ctx context.Context, vendorID string, limit, offset int) ([]Quote, error) {
	return s.Repo.ListByVendor(ctx, vendorID, limit, offset)
}

func (s *Service) Detail(ctx context.Context, vendorID, id string) (Quote, error) {
	return s.Repo.GetByID(ctx, vendorID, id)
}

// Update applies a workflow change. Moving a quote out of "pendiente"
// cancels its pending reminders so the salesperson's calendar stays clean.
func (s *Service) Update(ctx context.Context, vendorID, id string, upd WorkflowUpdate) (Quote, error) {
	current, err := s.Repo.GetByID(ctx, vendorID, id)
	if err != nil {
		return Quote{}, err
	}

	summary := current.Summary
	if upd.Summary != nil {
		summary = *upd.Summary
	}
	notes := current.Notes
	if upd.Notes != nil {
		notes = *upd.Notes
	}
	status := current.Status
	if upd.Status != nil {
		status = *upd.Status
		switch status {
		case StatusPending, StatusClosed, StatusLost:
		default:
			verr := &ValidationError{}
			verr.add("status", fmt.Sprintf("unknown status %q", status))
			return Quote{}, verr
		}
	}

	if err := s.Repo.UpdateWorkflow(ctx, vendorID, id, summary, notes, status); err != nil {
		return Quote{}, err
	}

	if status != StatusPending && current.Status == StatusPending && len(current.Events) > 0 {
		if err := s.cancelEvents(ctx, current); err != nil {
			telemetry.Warn("quotes.cancel_events_failed", map[string]any{
				"quote_number": current.QuoteNumber,
				"vendor_id":    vendorID,
				"error":        err.Error(),
			})
		} else if err := s.Repo.SetEvents(ctx, vendorID, id, nil); err != nil {
			return Quote{}, err
		}
	}

	return s.Repo.GetByID(ctx, vendorID, id)
}

// CancelReminders removes the pending calendar events of a quote without
// changing its status.
func (s *Service) CancelReminders(ctx context.Context, vendorID, id string) (Quote, error) {
	current, err := s.Repo.GetByID(ctx, vendorID, id)
	if err != nil {
		return Quote{}, err
	}
	if len(current.Events) > 0 {
		if err := s.cancelEvents(ctx, current); err != nil {
			return Quote{}, err
		}
		if err := s.Repo.SetEvents(ctx, vendorID, id, nil); err != nil {
			return Quote{}, err
		}
	}
	return s.Repo.GetByID(ctx, vendorID, id)
}

func (s *Service) cancelEvents(ctx context.Context, q Quote) error {
	access, err := s.Vendors.Access(ctx, q.VendorID)
	if err != nil {
		return fmt.Errorf("calendar access: %w", err)
	}
	auth := calendar.Auth{CalendarID: access.CalendarID, Tokens: access.Tokens}

	var firstErr error
	for _, ref := range q.Events {
		if err := s.Calendar.Delete(ctx, auth, ref.EventID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
