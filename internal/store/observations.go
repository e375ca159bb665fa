package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Observation is one labeled training example: the feature values a
// score was produced from, paired with the final score. Stored
// observations warm up the scoring engine on restart.
type Observation struct {
	ID        uuid.UUID          `db:"id" json:"id"`
	Ticker    string             `db:"ticker" json:"ticker"`
	Features  map[string]float64 `db:"-" json:"features"`
	Label     float64            `db:"label" json:"label"`
	CreatedAt time.Time          `db:"created_at" json:"created_at"`
}

// InsertObservation stores a labeled observation.
func (s *Store) InsertObservation(ctx context.Context, o Observation) error {
	if s == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	featuresJSON, err := json.Marshal(o.Features)
	if err != nil {
		return fmt.Errorf("store: marshal features: %w", err)
	}

	query := `
		INSERT INTO observations (id, ticker, features, label, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.db.ExecContext(ctx, query,
		o.ID, o.Ticker, featuresJSON, o.Label, o.CreatedAt); err != nil {
		return fmt.Errorf("store: insert observation: %w", err)
	}
	return nil
}

// Observations returns up to limit observations in chronological order,
// oldest first, so replaying them reproduces the original retrain order.
func (s *Store) Observations(ctx context.Context, limit int) ([]Observation, error) {
	if s == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT id, ticker, features, label, created_at FROM (
			SELECT id, ticker, features, label, created_at
			FROM observations
			ORDER BY created_at DESC
			LIMIT $1
		) recent
		ORDER BY created_at ASC`

	rows, err := s.db.QueryxContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query observations: %w", err)
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		var featuresJSON []byte
		if err := rows.Scan(&o.ID, &o.Ticker, &featuresJSON, &o.Label, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan observation: %w", err)
		}
		if err := json.Unmarshal(featuresJSON, &o.Features); err != nil {
			return nil, fmt.Errorf("store: unmarshal features: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
