package uploads

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"quotes-backend/internal/extract"
	"quotes-backend/internal/quotes"
	"quotes-backend/internal/scheduler"
	"quotes-backend/internal/shared/storage/object/local"
	"quotes-backend/internal/vendors"
)

// fakeSched answers every plan with created events and counts calls.
type fakeSched struct {
	calls   int
	failTag string
}

func (f *fakeSched) Schedule(_ context.Context, plan quotes.FollowupPlan, _ vendors.DelegatedAccess) scheduler.Result {
	f.calls++
	res := scheduler.Result{QuoteNumber: plan.QuoteNumber, VendorID: plan.VendorID}
	for _, ev := range plan.Events {
		out := scheduler.EventResult{Tag: ev.Tag, Key: ev.Key, Outcome: scheduler.OutcomeCreated, EventID: ev.Key}
		if ev.Tag == f.failTag {
			out = scheduler.EventResult{Tag: ev.Tag, Key: ev.Key, Outcome: scheduler.OutcomeFailed, Err: errors.New("calendar down")}
		}
		res.Events = append(res.Events, out)
	}
	return res
}

func goodExtraction() extract.Result {
	return extract.Result{
		Fields: map[string]string{
			extract.FieldQuoteNumber: "COT-1042",
			extract.FieldIssueDate:   "01/03/2024",
			extract.FieldSalesperson: "Juana Pérez",
			extract.FieldCustomer:    "ACME S.A.",
			extract.FieldTotal:       "150.000,00",
		},
		Ambiguous: map[string]bool{},
	}
}

type testEnv struct {
	svc    *Service
	quotes *quotes.MemoryRepo
	sched  *fakeSched
	vendor vendors.Vendor
}

func newTestEnv(t *testing.T, authorized bool) *testEnv {
	t.Helper()

	vendorRepo := vendors.NewMemoryRepo()
	vendorSvc := vendors.NewService(vendorRepo, &oauth2.Config{}, "America/Argentina/Buenos_Aires")

	v, err := vendorRepo.UpsertByEmail(context.Background(), vendors.Vendor{
		Email:       "juana@example.com",
		DisplayName: "Juana Pérez",
		Timezone:    "America/Argentina/Buenos_Aires",
	})
	if err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	if authorized {
		tok := &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}
		if err := vendorRepo.SaveToken(context.Background(), v.ID, tok); err != nil {
			t.Fatalf("save token: %v", err)
		}
	}

	quoteRepo := quotes.NewMemoryRepo()
	sched := &fakeSched{}
	svc := NewService(quoteRepo, vendorSvc, sched, local.New(t.TempDir()))
	svc.Extract = func([]byte) (extract.Result, error) { return goodExtraction(), nil }
	svc.Now = func() time.Time { return time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC) }

	return &testEnv{svc: svc, quotes: quoteRepo, sched: sched, vendor: v}
}

func TestProcessUploadHappyPath(t *testing.T) {
	env := newTestEnv(t, true)

	res, err := env.svc.ProcessUpload(context.Background(), "cotizacion.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}
	if res.Duplicate {
		t.Fatal("flagged as duplicate")
	}
	if res.QuoteNumber != "COT-1042" || res.VendorID != env.vendor.ID {
		t.Errorf("result = %+v", res)
	}
	if len(res.Events) != 2 {
		t.Fatalf("events = %d", len(res.Events))
	}

	stored, err := env.quotes.GetByID(context.Background(), env.vendor.ID, res.QuoteID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != quotes.StatusPending {
		t.Errorf("status = %q", stored.Status)
	}
	if stored.StorageKey == "" || stored.PDFSHA256 == "" {
		t.Errorf("stored = %+v", stored)
	}
	if len(stored.Events) != 2 {
		t.Errorf("stored events = %+v", stored.Events)
	}
}

func TestProcessUploadBlocksDuplicate(t *testing.T) {
	env := newTestEnv(t, true)

	first, err := env.svc.ProcessUpload(context.Background(), "cotizacion.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	second, err := env.svc.ProcessUpload(context.Background(), "cotizacion.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if !second.Duplicate {
		t.Fatal("duplicate not flagged")
	}
	if second.QuoteID != first.QuoteID {
		t.Errorf("duplicate points at %q, want %q", second.QuoteID, first.QuoteID)
	}
	if env.sched.calls != 1 {
		t.Errorf("scheduler called %d times", env.sched.calls)
	}
}

func TestProcessUploadDecodeError(t *testing.T) {
	env := newTestEnv(t, true)
	env.svc.Extract = func([]byte) (extract.Result, error) { return extract.Result{}, extract.ErrDecode }

	_, err := env.svc.ProcessUpload(context.Background(), "bad.pdf", []byte("not a pdf"))
	if !errors.Is(err, extract.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestProcessUploadValidationFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.svc.Extract = func([]byte) (extract.Result, error) {
		raw := goodExtraction()
		delete(raw.Fields, extract.FieldTotal)
		return raw, nil
	}

	_, err := env.svc.ProcessUpload(context.Background(), "cotizacion.pdf", []byte("pdf-bytes"))
	var verr *quotes.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	// Nothing was persisted or scheduled.
	if env.sched.calls != 0 {
		t.Errorf("scheduler called %d times", env.sched.calls)
	}
	list, _ := env.quotes.ListByVendor(context.Background(), env.vendor.ID, 10, 0)
	if len(list) != 0 {
		t.Errorf("persisted quotes = %d", len(list))
	}
}

func TestProcessUploadUnauthorizedVendor(t *testing.T) {
	env := newTestEnv(t, false)

	_, err := env.svc.ProcessUpload(context.Background(), "cotizacion.pdf", []byte("pdf-bytes"))
	if !errors.Is(err, vendors.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if env.sched.calls != 0 {
		t.Errorf("scheduler called %d times", env.sched.calls)
	}
}

func TestProcessUploadPersistsPartialScheduling(t *testing.T) {
	env := newTestEnv(t, true)
	env.sched.failTag = "72h"

	res, err := env.svc.ProcessUpload(context.Background(), "cotizacion.pdf", []byte("pdf-bytes"))
	if err != nil {
		t.Fatalf("ProcessUpload: %v", err)
	}

	var failed int
	for _, ev := range res.Events {
		if ev.Outcome == scheduler.OutcomeFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("failed events = %d", failed)
	}

	// The quote is stored with only the reminder that made it.
	stored, err := env.quotes.GetByID(context.Background(), env.vendor.ID, res.QuoteID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(stored.Events) != 1 || stored.Events[0].Tag != "48h" {
		t.Errorf("stored events = %+v", stored.Events)
	}
}
