package vendors

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) UpsertByEmail(ctx context.Context, v Vendor) (Vendor, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO vendors (id, email, display_name, timezone, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (email) DO UPDATE
SET display_name = EXCLUDED.display_name
RETURNING id, email, display_name, timezone, created_at`

	row := r.DB.QueryRowContext(ctx, query, v.ID, v.Email, v.DisplayName, v.Timezone, v.CreatedAt)
	var out Vendor
	if err := row.Scan(&out.ID, &out.Email, &out.DisplayName, &out.Timezone, &out.CreatedAt); err != nil {
		return Vendor{}, fmt.Errorf("upsert vendor: %w", err)
	}
	return out, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Vendor, error) {
	const query = `SELECT id, email, display_name, timezone, created_at FROM vendors WHERE id = $1`
	var v Vendor
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&v.ID, &v.Email, &v.DisplayName, &v.Timezone, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Vendor{}, ErrNotFound
	}
	if err != nil {
		return Vendor{}, err
	}
	return v, nil
}

func (r *PGRepo) List(ctx context.Context) ([]Vendor, error) {
	const query = `SELECT id, email, display_name, timezone, created_at FROM vendors ORDER BY display_name`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vendor
	for rows.Next() {
		var v Vendor
		if err := rows.Scan(&v.ID, &v.Email, &v.DisplayName, &v.Timezone, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PGRepo) SaveToken(ctx context.Context, vendorID string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	const query = `
INSERT INTO vendor_tokens (vendor_id, token_json, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (vendor_id) DO UPDATE
SET token_json = EXCLUDED.token_json, updated_at = EXCLUDED.updated_at`
	_, err = r.DB.ExecContext(ctx, query, vendorID, data, time.Now().UTC())
	return err
}

func (r *PGRepo) LoadToken(ctx context.Context, vendorID string) (*oauth2.Token, error) {
	const query = `SELECT token_json FROM vendor_tokens WHERE vendor_id = $1`
	var data []byte
	err := r.DB.QueryRowContext(ctx, query, vendorID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotAuthorized
	}
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return &tok, nil
}

var _ Repo = (*PGRepo)(nil)
