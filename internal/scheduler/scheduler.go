// Package scheduler places planned follow-up reminders on the salesperson's
// calendar, tolerating duplicates and transient upstream failures.
package scheduler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"quotes-backend/internal/calendar"
	"quotes-backend/internal/quotes"
	"quotes-backend/internal/shared/metrics"
	"quotes-backend/internal/shared/telemetry"
	"quotes-backend/internal/vendors"
)

// Outcomes for one planned event.
const (
	OutcomeCreated        = "created"
	OutcomeAlreadyExisted = "already_existed"
	OutcomeFailed         = "failed"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = 300 * time.Millisecond
	defaultCallTimeout = 15 * time.Second
)

// EventResult is the outcome for one planned reminder.
type EventResult struct {
	Tag      string
	Key      string
	Outcome  string
	EventID  string
	HTMLLink string
	Err      error
}

// Result reports the outcome of scheduling one plan. Events keep the plan's
// order.
type Result struct {
	QuoteNumber string
	VendorID    string
	Events      []EventResult
}

// AllScheduled reports whether every reminder exists on the calendar.
func (r Result) AllScheduled() bool {
	for _, ev := range r.Events {
		if ev.Outcome == OutcomeFailed {
			return false
		}
	}
	return true
}

// Refs converts the successful outcomes into persistable event references.
func (r Result) Refs() []quotes.EventRef {
	var refs []quotes.EventRef
	for _, ev := range r.Events {
		if ev.Outcome == OutcomeFailed {
			continue
		}
		refs = append(refs, quotes.EventRef{Tag: ev.Tag, EventID: ev.EventID, HTMLLink: ev.HTMLLink})
	}
	return refs
}

// Scheduler ensures planned reminders exist on the target calendar.
type Scheduler struct {
	Calendar    calendar.Client
	MaxAttempts int
	BaseDelay   time.Duration
	CallTimeout time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(client calendar.Client) *Scheduler {
	return &Scheduler{
		Calendar:    client,
		MaxAttempts: defaultMaxAttempts,
		BaseDelay:   defaultBaseDelay,
		CallTimeout: defaultCallTimeout,
		sleep:       sleepCtx,
	}
}

// Schedule places every event of the plan on the delegated calendar. Events
// are handled independently; one failure never blocks the other. The call
// itself only errors on a cancelled context.
func (s *Scheduler) Schedule(ctx context.Context, plan quotes.FollowupPlan, access vendors.DelegatedAccess) Result {
	started := time.Now()
	auth := calendar.Auth{CalendarID: access.CalendarID, Tokens: access.Tokens}

	results := make([]EventResult, len(plan.Events))
	g, gctx := errgroup.WithContext(ctx)
	for i, ev := range plan.Events {
		g.Go(func() error {
			results[i] = s.ensure(gctx, auth, ev)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		switch res.Outcome {
		case OutcomeCreated:
			metrics.IncEventCreated()
		case OutcomeAlreadyExisted:
			metrics.IncEventExisting()
		case OutcomeFailed:
			metrics.IncEventFailed()
			telemetry.Error("scheduler.event_failed", map[string]any{
				"quote_number": plan.QuoteNumber,
				"vendor_id":    plan.VendorID,
				"tag":          res.Tag,
				"error":        res.Err.Error(),
			})
		}
	}
	metrics.ObserveSchedulingDurationMs(float64(time.Since(started).Milliseconds()))

	return Result{QuoteNumber: plan.QuoteNumber, VendorID: plan.VendorID, Events: results}
}

// ensure makes one reminder exist: a lookup first, then an insert with
// bounded retries on transient failures. A conflicting insert means another
// submission won the race, which counts as success.
func (s *Scheduler) ensure(ctx context.Context, auth calendar.Auth, ev quotes.FollowupEvent) EventResult {
	res := EventResult{Tag: ev.Tag, Key: ev.Key}

	existing, found, err := s.find(ctx, auth, ev.Key)
	if err == nil && found {
		res.Outcome = OutcomeAlreadyExisted
		res.EventID = existing.EventID
		res.HTMLLink = existing.HTMLLink
		return res
	}
	// A failed lookup is not fatal; the insert below is authoritative.

	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		created, err := s.insert(ctx, auth, ev)
		if err == nil {
			res.Outcome = OutcomeCreated
			res.EventID = created.EventID
			res.HTMLLink = created.HTMLLink
			return res
		}
		if errors.Is(err, calendar.ErrConflict) {
			res.Outcome = OutcomeAlreadyExisted
			res.EventID = ev.Key
			if existing, found, ferr := s.find(ctx, auth, ev.Key); ferr == nil && found {
				res.HTMLLink = existing.HTMLLink
			}
			return res
		}
		if attempt >= attempts || !isTransient(err) {
			res.Outcome = OutcomeFailed
			res.Err = err
			return res
		}
		if serr := s.sleep(ctx, time.Duration(attempt)*s.BaseDelay); serr != nil {
			res.Outcome = OutcomeFailed
			res.Err = serr
			return res
		}
	}
}

func (s *Scheduler) find(ctx context.Context, auth calendar.Auth, key string) (calendar.Created, bool, error) {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Calendar.Find(callCtx, auth, key)
}

func (s *Scheduler) insert(ctx context.Context, auth calendar.Auth, ev quotes.FollowupEvent) (calendar.Created, error) {
	callCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.Calendar.Insert(callCtx, auth, calendar.Event{
		Key:         ev.Key,
		Tag:         ev.Tag,
		Summary:     ev.Subject,
		Description: ev.Body,
		Start:       ev.Start,
		End:         ev.End,
	})
}

func (s *Scheduler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.CallTimeout)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
