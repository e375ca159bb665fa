package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/credtech/credintel/internal/rating"
)

// A nil store is the unconfigured-database case; writes are no-ops and
// reads come back empty instead of panicking.
func TestNilStoreIsNoOp(t *testing.T) {
	var s *Store

	err := s.Insert(context.Background(), Assessment{
		ID:        uuid.New(),
		Ticker:    "ACME",
		Bucket:    rating.BucketHigh,
		CreatedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)

	history, err := s.History(context.Background(), "ACME", 10)
	assert.NoError(t, err)
	assert.Nil(t, history)

	_, err = s.Latest(context.Background(), "ACME")
	assert.Error(t, err)

	err = s.InsertObservation(context.Background(), Observation{
		ID:        uuid.New(),
		Ticker:    "ACME",
		Features:  map[string]float64{"debt_to_equity": 0.4},
		Label:     72.5,
		CreatedAt: time.Now().UTC(),
	})
	assert.NoError(t, err)

	obs, err := s.Observations(context.Background(), 100)
	assert.NoError(t, err)
	assert.Nil(t, obs)

	assert.NoError(t, s.EnsureSchema(context.Background()))
	assert.NoError(t, s.Close())
}
