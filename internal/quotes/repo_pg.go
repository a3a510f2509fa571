package quotes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const quoteColumns = `id, vendor_id, quote_number, issue_date, customer_name, salesperson, total_cents, currency, pdf_sha256, storage_key, status, summary, notes, events_json, created_at, updated_at`

// Create inserts a new quote.
func (r *PGRepo) Create(ctx context.Context, q Quote) error {
	const query = `
INSERT INTO quotes (
    id,
    vendor_id,
    quote_number,
    issue_date,
    customer_name,
    salesperson,
    total_cents,
    currency,
    pdf_sha256,
    storage_key,
    status,
    summary,
    notes,
    events_json,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)`

	status := q.Status
	if status == "" {
		status = StatusPending
	}

	var storageKey sql.NullString
	if q.StorageKey != "" {
		storageKey = sql.NullString{String: q.StorageKey, Valid: true}
	}

	eventsJSON, err := marshalEvents(q.Events)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		q.ID,
		q.VendorID,
		q.QuoteNumber,
		q.IssueDate,
		q.Customer,
		q.Salesperson,
		q.Total.Cents,
		q.Total.Currency,
		q.PDFSHA256,
		storageKey,
		status,
		q.Summary,
		q.Notes,
		eventsJSON,
		q.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetByID fetches a quote by ID for a vendor.
func (r *PGRepo) GetByID(ctx context.Context, vendorID, id string) (Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE vendor_id = $1 AND id = $2 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, vendorID, id))
}

// FindExisting looks for a prior upload by quote number or checksum.
func (r *PGRepo) FindExisting(ctx context.Context, vendorID, quoteNumber, pdfSHA256 string) (Quote, bool, error) {
	query := `
SELECT ` + quoteColumns + `
FROM quotes
WHERE vendor_id = $1 AND (quote_number = $2 OR pdf_sha256 = $3)
ORDER BY created_at
LIMIT 1`
	q, err := r.scanOne(r.DB.QueryRowContext(ctx, query, vendorID, quoteNumber, pdfSHA256))
	if errors.Is(err, ErrNotFound) {
		return Quote{}, false, nil
	}
	if err != nil {
		return Quote{}, false, err
	}
	return q, true, nil
}

// ListByVendor lists quotes ordered newest-first.
func (r *PGRepo) ListByVendor(ctx context.Context, vendorID string, limit, offset int) ([]Quote, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + quoteColumns + `
FROM quotes
WHERE vendor_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, vendorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// UpdateWorkflow stores the vendor-editable fields.
func (r *PGRepo) UpdateWorkflow(ctx context.Context, vendorID, id, summary, notes, status string) error {
	const query = `
UPDATE quotes
SET summary = $1, notes = $2, status = $3, updated_at = $4
WHERE vendor_id = $5 AND id = $6`
	res, err := r.DB.ExecContext(ctx, query, summary, notes, status, time.Now().UTC(), vendorID, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEvents replaces the stored calendar event references.
func (r *PGRepo) SetEvents(ctx context.Context, vendorID, id string, events []EventRef) error {
	eventsJSON, err := marshalEvents(events)
	if err != nil {
		return err
	}
	const query = `
UPDATE quotes
SET events_json = $1, updated_at = $2
WHERE vendor_id = $3 AND id = $4`
	res, err := r.DB.ExecContext(ctx, query, eventsJSON, time.Now().UTC(), vendorID, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll lists quotes across vendors for the admin surface.
func (r *PGRepo) ListAll(ctx context.Context, filter AdminFilter) ([]Quote, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.VendorID != "" {
		add("vendor_id = $%d", filter.VendorID)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if !filter.From.IsZero() {
		add("issue_date >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("issue_date <= $%d", filter.To)
	}

	query := `SELECT ` + quoteColumns + ` FROM quotes`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 5000 {
		limit = 500
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Quote, error) {
	var (
		q          Quote
		storageKey sql.NullString
		eventsJSON []byte
	)
	err := row.Scan(
		&q.ID,
		&q.VendorID,
		&q.QuoteNumber,
		&q.IssueDate,
		&q.Customer,
		&q.Salesperson,
		&q.Total.Cents,
		&q.Total.Currency,
		&q.PDFSHA256,
		&storageKey,
		&q.Status,
		&q.Summary,
		&q.Notes,
		&eventsJSON,
		&q.CreatedAt,
		&q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quote{}, ErrNotFound
		}
		return Quote{}, err
	}
	if storageKey.Valid {
		q.StorageKey = storageKey.String
	}
	if len(eventsJSON) > 0 {
		if err := json.Unmarshal(eventsJSON, &q.Events); err != nil {
			return Quote{}, fmt.Errorf("decode events_json: %w", err)
		}
	}
	return q, nil
}

func (r *PGRepo) scanAll(rows *sql.Rows) ([]Quote, error) {
	var out []Quote
	for rows.Next() {
		q, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func marshalEvents(events []EventRef) ([]byte, error) {
	if len(events) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(events)
	if err != nil {
		return nil, fmt.Errorf("encode events_json: %w", err)
	}
	return data, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repo = (*PGRepo)(nil)
