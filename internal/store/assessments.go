package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/credtech/credintel/internal/explain"
	"github.com/credtech/credintel/internal/rating"
)

// Assessment is one persisted credit assessment for a company.
type Assessment struct {
	ID          uuid.UUID           `db:"id" json:"id"`
	Ticker      string              `db:"ticker" json:"ticker"`
	Sector      string              `db:"sector" json:"sector"`
	Bucket      rating.Bucket       `db:"bucket" json:"bucket"`
	BucketProb  float64             `db:"bucket_prob" json:"bucket_prob"`
	Rating      string              `db:"rating" json:"rating"`
	Score       float64             `db:"score" json:"score"`
	Explanation explain.Explanation `db:"-" json:"explanation"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
}

// Store persists assessments in Postgres. A nil *Store is a valid no-op
// store, so callers without a database configured can skip nil checks.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, maxOpen, maxIdle int) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db, timeout: 10 * time.Second}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Insert stores a new assessment. The explanation is kept as JSONB so the
// breakdown survives schema changes to the explainer.
func (s *Store) Insert(ctx context.Context, a Assessment) error {
	if s == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	explanationJSON, err := json.Marshal(a.Explanation)
	if err != nil {
		return fmt.Errorf("store: marshal explanation: %w", err)
	}

	query := `
		INSERT INTO assessments (id, ticker, sector, bucket, bucket_prob, rating, score, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.db.ExecContext(ctx, query,
		a.ID, a.Ticker, a.Sector, string(a.Bucket), a.BucketProb,
		a.Rating, a.Score, explanationJSON, a.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("store: duplicate assessment %s: %w", a.ID, err)
		}
		return fmt.Errorf("store: insert assessment: %w", err)
	}
	return nil
}

// Latest returns the most recent assessment for a ticker, or sql.ErrNoRows
// wrapped when none exists.
func (s *Store) Latest(ctx context.Context, ticker string) (*Assessment, error) {
	if s == nil {
		return nil, fmt.Errorf("store: not configured: %w", sql.ErrNoRows)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT id, ticker, sector, bucket, bucket_prob, rating, score, explanation, created_at
		FROM assessments
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var a Assessment
	var explanationJSON []byte
	row := s.db.QueryRowxContext(ctx, query, ticker)
	err := row.Scan(&a.ID, &a.Ticker, &a.Sector, &a.Bucket, &a.BucketProb,
		&a.Rating, &a.Score, &explanationJSON, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("store: no assessment for %s: %w", ticker, err)
		}
		return nil, fmt.Errorf("store: query assessment: %w", err)
	}
	if err := json.Unmarshal(explanationJSON, &a.Explanation); err != nil {
		return nil, fmt.Errorf("store: unmarshal explanation: %w", err)
	}
	return &a, nil
}

// History returns up to limit assessments for a ticker, newest first.
func (s *Store) History(ctx context.Context, ticker string, limit int) ([]Assessment, error) {
	if s == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT id, ticker, sector, bucket, bucket_prob, rating, score, explanation, created_at
		FROM assessments
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryxContext(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query history: %w", err)
	}
	defer rows.Close()

	var out []Assessment
	for rows.Next() {
		var a Assessment
		var explanationJSON []byte
		if err := rows.Scan(&a.ID, &a.Ticker, &a.Sector, &a.Bucket, &a.BucketProb,
			&a.Rating, &a.Score, &explanationJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan assessment: %w", err)
		}
		if err := json.Unmarshal(explanationJSON, &a.Explanation); err != nil {
			return nil, fmt.Errorf("store: unmarshal explanation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// EnsureSchema creates the assessments and observations tables when they
// do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	schema := `
		CREATE TABLE IF NOT EXISTS assessments (
			id UUID PRIMARY KEY,
			ticker TEXT NOT NULL,
			sector TEXT NOT NULL,
			bucket TEXT NOT NULL,
			bucket_prob DOUBLE PRECISION NOT NULL,
			rating TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			explanation JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS assessments_ticker_created_idx
			ON assessments (ticker, created_at DESC);
		CREATE TABLE IF NOT EXISTS observations (
			id UUID PRIMARY KEY,
			ticker TEXT NOT NULL,
			features JSONB NOT NULL,
			label DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS observations_created_idx
			ON observations (created_at DESC)`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}
