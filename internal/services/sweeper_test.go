package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoagora/autoagora-backend/internal/models"
)

func TestSweepExpiresDueListings(t *testing.T) {
	store := NewMemoryListingStore()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	due, err := store.Create(context.Background(), uuid.New(), validAttrs(), created, 0)
	require.NoError(t, err)
	fresh, err := store.Create(context.Background(), uuid.New(), validAttrs(), created.Add(10*24*time.Hour), 0)
	require.NoError(t, err)

	sweeper := NewExpirationSweeper(store, nil, time.Hour)

	n, err := sweeper.Sweep(context.Background(), created.Add(models.RenewalPeriod))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetByID(context.Background(), due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingExpired, got.Status)

	got, err = store.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingAvailable, got.Status)
}

func TestSweepIsIdempotent(t *testing.T) {
	store := NewMemoryListingStore()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Create(context.Background(), uuid.New(), validAttrs(), created, 0)
	require.NoError(t, err)

	sweeper := NewExpirationSweeper(store, nil, time.Hour)
	at := created.Add(models.RenewalPeriod + time.Minute)

	n, err := sweeper.Sweep(context.Background(), at)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = sweeper.Sweep(context.Background(), at)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSweeperStartRunsImmediateSweep(t *testing.T) {
	store := NewMemoryListingStore()
	created := time.Now().Add(-2 * models.RenewalPeriod)

	listing, err := store.Create(context.Background(), uuid.New(), validAttrs(), created, 0)
	require.NoError(t, err)

	sweeper := NewExpirationSweeper(store, time.Now, time.Hour)
	sweeper.Start()
	defer sweeper.Stop()

	require.Eventually(t, func() bool {
		got, err := store.GetByID(context.Background(), listing.ID)
		return err == nil && got.Status == models.ListingExpired
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweeperStopIsSafeTwice(t *testing.T) {
	sweeper := NewExpirationSweeper(NewMemoryListingStore(), time.Now, time.Hour)
	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()
}

// failingStore returns an error from Expire a fixed number of times, then
// delegates to the wrapped store.
type failingStore struct {
	ListingStore
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *failingStore) Expire(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return 0, errors.New("database unavailable")
	}
	return s.ListingStore.Expire(ctx, now)
}

func TestSweeperSurvivesFailedTicks(t *testing.T) {
	inner := NewMemoryListingStore()
	created := time.Now().Add(-2 * models.RenewalPeriod)

	listing, err := inner.Create(context.Background(), uuid.New(), validAttrs(), created, 0)
	require.NoError(t, err)

	store := &failingStore{ListingStore: inner, failures: 2}

	sweeper := NewExpirationSweeper(store, time.Now, 20*time.Millisecond)
	sweeper.Start()
	defer sweeper.Stop()

	// The first ticks fail; a later tick still expires the listing.
	require.Eventually(t, func() bool {
		got, err := inner.GetByID(context.Background(), listing.ID)
		return err == nil && got.Status == models.ListingExpired
	}, 2*time.Second, 10*time.Millisecond)
}
