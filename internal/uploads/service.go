// Package uploads runs the ingestion pipeline: decode the quotation PDF,
// validate the extraction, plan the follow-ups and schedule them on the
// salesperson's calendar.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quotes-backend/internal/extract"
	"quotes-backend/internal/quotes"
	"quotes-backend/internal/scheduler"
	"quotes-backend/internal/shared/metrics"
	"quotes-backend/internal/shared/storage/object"
	"quotes-backend/internal/shared/telemetry"
	"quotes-backend/internal/shared/util"
	"quotes-backend/internal/vendors"
)

// VendorAccess is the slice of the vendors service the pipeline needs.
type VendorAccess interface {
	Directory(ctx context.Context) (vendors.Directory, error)
	Access(ctx context.Context, vendorID string) (vendors.DelegatedAccess, error)
}

// FollowupScheduler places a plan on a delegated calendar.
type FollowupScheduler interface {
	Schedule(ctx context.Context, plan quotes.FollowupPlan, access vendors.DelegatedAccess) scheduler.Result
}

// PipelineResult is the outcome of one upload.
type PipelineResult struct {
	QuoteID     string
	QuoteNumber string
	VendorID    string
	Duplicate   bool
	Events      []scheduler.EventResult
}

// Service wires the pipeline stages together.
type Service struct {
	Quotes    quotes.Repo
	Vendors   VendorAccess
	Scheduler FollowupScheduler
	Store     object.ObjectStore

	// Extract is swapped out in tests to avoid building real PDFs.
	Extract func(data []byte) (extract.Result, error)
	Now     func() time.Time
}

func NewService(repo quotes.Repo, vendorSvc VendorAccess, sched FollowupScheduler, store object.ObjectStore) *Service {
	return &Service{
		Quotes:    repo,
		Vendors:   vendorSvc,
		Scheduler: sched,
		Store:     store,
		Extract:   extract.Parse,
		Now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessUpload runs the full pipeline for one PDF. Decode and validation
// failures surface as extract.ErrDecode and *quotes.ValidationError; a
// duplicate submission returns the original quote with Duplicate set
// instead of scheduling anything twice.
func (s *Service) ProcessUpload(ctx context.Context, fileName string, data []byte) (PipelineResult, error) {
	checksum := util.Checksum(data)

	raw, err := s.Extract(data)
	if err != nil {
		metrics.IncQuoteFailed()
		return PipelineResult{}, err
	}

	dir, err := s.Vendors.Directory(ctx)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("load vendor directory: %w", err)
	}

	rec, err := quotes.Validate(raw, s.Now(), dir)
	if err != nil {
		metrics.IncQuoteFailed()
		return PipelineResult{}, err
	}

	existing, found, err := s.Quotes.FindExisting(ctx, rec.VendorID, rec.QuoteNumber, checksum)
	if err != nil {
		return PipelineResult{}, fmt.Errorf("duplicate lookup: %w", err)
	}
	if found {
		metrics.IncQuoteBlocked()
		telemetry.Info("uploads.duplicate_blocked", map[string]any{
			"quote_number": rec.QuoteNumber,
			"vendor_id":    rec.VendorID,
			"existing_id":  existing.ID,
		})
		return duplicateResult(existing), nil
	}

	access, err := s.Vendors.Access(ctx, rec.VendorID)
	if err != nil {
		return PipelineResult{}, err
	}

	storageKey, _, _, err := s.Store.Save(ctx, rec.VendorID, fileName, bytes.NewReader(data))
	if err != nil {
		return PipelineResult{}, fmt.Errorf("store pdf: %w", err)
	}

	plan := quotes.Plan(rec, access.Location)
	schedResult := s.Scheduler.Schedule(ctx, plan, access)

	now := s.Now()
	quote := quotes.Quote{
		ID:          uuid.NewString(),
		VendorID:    rec.VendorID,
		QuoteNumber: rec.QuoteNumber,
		IssueDate:   rec.IssueDate,
		Customer:    rec.Customer,
		Salesperson: rec.Salesperson,
		Total:       rec.Total,
		PDFSHA256:   checksum,
		StorageKey:  storageKey,
		Status:      quotes.StatusPending,
		Events:      schedResult.Refs(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Quotes.Create(ctx, quote); err != nil {
		if errors.Is(err, quotes.ErrDuplicate) {
			// A concurrent upload persisted first; the calendar events are
			// shared via their keys, so just report the winner.
			metrics.IncQuoteBlocked()
			if winner, ok, lerr := s.Quotes.FindExisting(ctx, rec.VendorID, rec.QuoteNumber, checksum); lerr == nil && ok {
				return duplicateResult(winner), nil
			}
			return PipelineResult{QuoteNumber: rec.QuoteNumber, VendorID: rec.VendorID, Duplicate: true}, nil
		}
		return PipelineResult{}, fmt.Errorf("persist quote: %w", err)
	}

	metrics.IncQuoteProcessed()
	telemetry.Info("uploads.processed", map[string]any{
		"quote_number":  quote.QuoteNumber,
		"vendor_id":     quote.VendorID,
		"all_scheduled": schedResult.AllScheduled(),
	})

	return PipelineResult{
		QuoteID:     quote.ID,
		QuoteNumber: quote.QuoteNumber,
		VendorID:    quote.VendorID,
		Events:      schedResult.Events,
	}, nil
}

func duplicateResult(q quotes.Quote) PipelineResult {
	res := PipelineResult{
		QuoteID:     q.ID,
		QuoteNumber: q.QuoteNumber,
		VendorID:    q.VendorID,
		Duplicate:   true,
	}
	for _, ref := range q.Events {
		res.Events = append(res.Events, scheduler.EventResult{
			Tag:      ref.Tag,
			Key:      ref.EventID,
			Outcome:  scheduler.OutcomeAlreadyExisted,
			EventID:  ref.EventID,
			HTMLLink: ref.HTMLLink,
		})
	}
	return res
}
