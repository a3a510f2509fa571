package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var quoteRowColumns = []string{
	"id", "vendor_id", "quote_number", "issue_date", "customer_name",
	"salesperson", "total_cents", "currency", "pdf_sha256", "storage_key",
	"status", "summary", "notes", "events_json", "created_at", "updated_at",
}

func TestPGRepoCreateMapsUniqueViolation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("INSERT INTO quotes").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "quotes_vendor_id_quote_number_key"})

	repo := &PGRepo{DB: db}
	err = repo.Create(context.Background(), Quote{
		ID:          "q-1",
		VendorID:    "vendor-7",
		QuoteNumber: "COT-1042",
		IssueDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Customer:    "ACME S.A.",
		Salesperson: "Juana Pérez",
		Total:       Money{Cents: 15000000, Currency: "ARS"},
		PDFSHA256:   "abc",
		CreatedAt:   time.Now().UTC(),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDScansEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(quoteRowColumns).AddRow(
		"q-1", "vendor-7", "COT-1042", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"ACME S.A.", "Juana Pérez", int64(15000000), "ARS", "abc", "quotes/v7/cot-1042.pdf",
		StatusPending, "", "",
		[]byte(`[{"tag":"48h","event_id":"deadbeef"},{"tag":"72h","event_id":"cafebabe"}]`),
		now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM quotes WHERE vendor_id").
		WithArgs("vendor-7", "q-1").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	q, err := repo.GetByID(context.Background(), "vendor-7", "q-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if q.QuoteNumber != "COT-1042" || q.Total.Cents != 15000000 {
		t.Errorf("quote = %+v", q)
	}
	if q.StorageKey != "quotes/v7/cot-1042.pdf" {
		t.Errorf("StorageKey = %q", q.StorageKey)
	}
	if len(q.Events) != 2 || q.Events[0].EventID != "deadbeef" {
		t.Errorf("Events = %+v", q.Events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM quotes WHERE vendor_id").
		WithArgs("vendor-7", "missing").
		WillReturnRows(sqlmock.NewRows(quoteRowColumns))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "vendor-7", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoFindExistingMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .+ FROM quotes").
		WithArgs("vendor-7", "COT-9999", "nohash").
		WillReturnRows(sqlmock.NewRows(quoteRowColumns))

	repo := &PGRepo{DB: db}
	_, found, err := repo.FindExisting(context.Background(), "vendor-7", "COT-9999", "nohash")
	if err != nil {
		t.Fatalf("FindExisting: %v", err)
	}
	if found {
		t.Fatal("reported a hit on empty result")
	}
}

func TestPGRepoUpdateWorkflowNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE quotes").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	err = repo.UpdateWorkflow(context.Background(), "vendor-7", "missing", "", "", StatusClosed)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
