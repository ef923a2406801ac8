package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a set record does not exist.
var ErrNotFound = errors.New("not found")

// SetRecord is one row of set metadata. Sets are scoped to a bucket, which
// in turn belongs to an audience.
type SetRecord struct {
	ID        uuid.UUID `json:"id"`
	Bucket    string    `json:"bucket"`
	Audience  string    `json:"audience"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// SetRepo reads and writes set metadata.
type SetRepo struct {
	pool *pgxpool.Pool
}

// NewSetRepo wraps a connection pool.
func NewSetRepo(pool *pgxpool.Pool) *SetRepo {
	return &SetRepo{pool: pool}
}

// Migrate creates the sets table if it does not exist.
func (r *SetRepo) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sets (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			bucket text NOT NULL,
			audience text NOT NULL,
			label text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now(),
			UNIQUE (bucket, label)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate sets: %w", err)
	}
	return nil
}

// Upsert creates or refreshes a set record keyed on (bucket, label).
func (r *SetRepo) Upsert(ctx context.Context, bucket, audience, label string) (SetRecord, error) {
	var rec SetRecord
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sets (bucket, audience, label)
		VALUES ($1, $2, $3)
		ON CONFLICT (bucket, label) DO UPDATE SET audience = EXCLUDED.audience
		RETURNING id, bucket, audience, label, created_at
	`, bucket, audience, label).Scan(&rec.ID, &rec.Bucket, &rec.Audience, &rec.Label, &rec.CreatedAt)
	if err != nil {
		return SetRecord{}, fmt.Errorf("upsert set: %w", err)
	}
	return rec, nil
}

// Get fetches one set record by bucket and label.
func (r *SetRepo) Get(ctx context.Context, bucket, label string) (SetRecord, error) {
	var rec SetRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, bucket, audience, label, created_at
		FROM sets
		WHERE bucket = $1 AND label = $2
	`, bucket, label).Scan(&rec.ID, &rec.Bucket, &rec.Audience, &rec.Label, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SetRecord{}, ErrNotFound
		}
		return SetRecord{}, fmt.Errorf("get set: %w", err)
	}
	return rec, nil
}

// ListByBucket returns all set records for a bucket, newest first.
func (r *SetRepo) ListByBucket(ctx context.Context, bucket string) ([]SetRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, bucket, audience, label, created_at
		FROM sets
		WHERE bucket = $1
		ORDER BY created_at DESC
	`, bucket)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	records := []SetRecord{}
	for rows.Next() {
		var rec SetRecord
		if err := rows.Scan(&rec.ID, &rec.Bucket, &rec.Audience, &rec.Label, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list sets: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	return records, nil
}
