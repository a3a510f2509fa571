package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/googleapi"

	"quotes-backend/internal/calendar"
	"quotes-backend/internal/quotes"
	"quotes-backend/internal/vendors"
)

// fakeCalendar records inserted events and can fail selected keys.
type fakeCalendar struct {
	mu       sync.Mutex
	events   map[string]calendar.Event
	inserts  map[string]int
	failWith map[string][]error // errors dequeued per key before success
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{
		events:   make(map[string]calendar.Event),
		inserts:  make(map[string]int),
		failWith: make(map[string][]error),
	}
}

func (f *fakeCalendar) Find(_ context.Context, _ calendar.Auth, key string) (calendar.Created, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[key]; ok {
		return calendar.Created{EventID: key, HTMLLink: "https://cal/" + key}, true, nil
	}
	return calendar.Created{}, false, nil
}

func (f *fakeCalendar) Insert(_ context.Context, _ calendar.Auth, ev calendar.Event) (calendar.Created, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserts[ev.Key]++
	if queue := f.failWith[ev.Key]; len(queue) > 0 {
		err := queue[0]
		f.failWith[ev.Key] = queue[1:]
		return calendar.Created{}, err
	}
	if _, ok := f.events[ev.Key]; ok {
		return calendar.Created{}, calendar.ErrConflict
	}
	f.events[ev.Key] = ev
	return calendar.Created{EventID: ev.Key, HTMLLink: "https://cal/" + ev.Key}, nil
}

func (f *fakeCalendar) Delete(_ context.Context, _ calendar.Auth, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventID)
	return nil
}

func testPlan() quotes.FollowupPlan {
	rec := quotes.QuoteRecord{
		QuoteNumber: "COT-1042",
		IssueDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		VendorID:    "vendor-7",
		Salesperson: "Juana Pérez",
		Customer:    "ACME S.A.",
		Total:       quotes.Money{Cents: 15000000, Currency: "ARS"},
	}
	return quotes.Plan(rec, time.UTC)
}

func testScheduler(fake *fakeCalendar) *Scheduler {
	s := New(fake)
	s.sleep = func(context.Context, time.Duration) error { return nil }
	return s
}

func testAccess() vendors.DelegatedAccess {
	return vendors.DelegatedAccess{VendorID: "vendor-7", CalendarID: "primary", Location: time.UTC}
}

func TestScheduleCreatesBothEvents(t *testing.T) {
	fake := newFakeCalendar()
	s := testScheduler(fake)

	res := s.Schedule(context.Background(), testPlan(), testAccess())

	if !res.AllScheduled() {
		t.Fatalf("result = %+v", res)
	}
	if len(res.Events) != 2 {
		t.Fatalf("events = %d", len(res.Events))
	}
	for _, ev := range res.Events {
		if ev.Outcome != OutcomeCreated {
			t.Errorf("event %s outcome = %s", ev.Tag, ev.Outcome)
		}
		if ev.EventID == "" || ev.HTMLLink == "" {
			t.Errorf("event %s missing id/link", ev.Tag)
		}
	}
	if refs := res.Refs(); len(refs) != 2 {
		t.Errorf("refs = %+v", refs)
	}
}

func TestScheduleIsIdempotent(t *testing.T) {
	fake := newFakeCalendar()
	s := testScheduler(fake)
	plan := testPlan()

	s.Schedule(context.Background(), plan, testAccess())
	res := s.Schedule(context.Background(), plan, testAccess())

	if !res.AllScheduled() {
		t.Fatalf("result = %+v", res)
	}
	for _, ev := range res.Events {
		if ev.Outcome != OutcomeAlreadyExisted {
			t.Errorf("event %s outcome = %s", ev.Tag, ev.Outcome)
		}
	}
	if len(fake.events) != 2 {
		t.Errorf("calendar holds %d events", len(fake.events))
	}
}

func TestScheduleTreatsConflictAsExisting(t *testing.T) {
	fake := newFakeCalendar()
	s := testScheduler(fake)
	plan := testPlan()

	// Another submission wins the race between our lookup and insert.
	key := plan.Events[0].Key
	fake.failWith[key] = []error{calendar.ErrConflict}

	res := s.Schedule(context.Background(), plan, testAccess())
	if res.Events[0].Outcome != OutcomeAlreadyExisted {
		t.Errorf("outcome = %s", res.Events[0].Outcome)
	}
	if res.Events[0].EventID != key {
		t.Errorf("event id = %q", res.Events[0].EventID)
	}
}

func TestScheduleRetriesTransientFailures(t *testing.T) {
	fake := newFakeCalendar()
	s := testScheduler(fake)
	plan := testPlan()

	key := plan.Events[0].Key
	fake.failWith[key] = []error{
		&googleapi.Error{Code: 503},
		&googleapi.Error{Code: 429},
	}

	res := s.Schedule(context.Background(), plan, testAccess())
	if !res.AllScheduled() {
		t.Fatalf("result = %+v", res)
	}
	if got := fake.inserts[key]; got != 3 {
		t.Errorf("insert attempts = %d, want 3", got)
	}
}

func TestScheduleDoesNotRetryPermanentFailures(t *testing.T) {
	fake := newFakeCalendar()
	s := testScheduler(fake)
	plan := testPlan()

	key := plan.Events[0].Key
	fake.failWith[key] = []error{&googleapi.Error{Code: 403}}

	res := s.Schedule(context.Background(), plan, testAccess())
	if res.Events[0].Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s", res.Events[0].Outcome)
	}
	if got := fake.inserts[key]; got != 1 {
		t.Errorf("insert attempts = %d, want 1", got)
	}
	// The other event still went through.
	if res.Events[1].Outcome != OutcomeCreated {
		t.Errorf("second event outcome = %s", res.Events[1].Outcome)
	}
	if refs := res.Refs(); len(refs) != 1 || refs[0].Tag != "72h" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestScheduleGivesUpAfterMaxAttempts(t *testing.T) {
	fake := newFakeCalendar()
	s := testScheduler(fake)
	plan := testPlan()

	key := plan.Events[0].Key
	fake.failWith[key] = []error{
		&googleapi.Error{Code: 500},
		&googleapi.Error{Code: 500},
		&googleapi.Error{Code: 500},
	}

	res := s.Schedule(context.Background(), plan, testAccess())
	if res.Events[0].Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s", res.Events[0].Outcome)
	}
	var apiErr *googleapi.Error
	if !errors.As(res.Events[0].Err, &apiErr) {
		t.Errorf("err = %v", res.Events[0].Err)
	}
	if got := fake.inserts[key]; got != 3 {
		t.Errorf("insert attempts = %d, want 3", got)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&googleapi.Error{Code: 500}, true},
		{&googleapi.Error{Code: 429}, true},
		{&googleapi.Error{Code: 408}, true},
		{&googleapi.Error{Code: 403}, false},
		{&googleapi.Error{Code: 404}, false},
		{context.DeadlineExceeded, true},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("invalid credentials"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Errorf("isTransient(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
