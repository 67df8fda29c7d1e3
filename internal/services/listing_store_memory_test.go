package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoagora/autoagora-backend/internal/models"
)

func validAttrs() ListingAttrs {
	return ListingAttrs{
		Make:      "Toyota",
		Model:     "Corolla",
		Year:      2018,
		Price:     12500,
		Mileage:   64000,
		Condition: "used",
		Color:     "silver",
		Location:  "Limassol",
	}
}

func TestCreateSetsDefaultsAndExpiry(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	listing, err := store.Create(context.Background(), owner, validAttrs(), now, 0)
	require.NoError(t, err)

	assert.Equal(t, models.ListingAvailable, listing.Status)
	assert.Equal(t, 0, listing.ViewCount)
	assert.Equal(t, now, listing.CreatedAt)
	assert.Equal(t, now.Add(models.RenewalPeriod), listing.ExpiresAt)
	assert.Equal(t, owner, listing.OwnerID)
}

func TestCreateValidation(t *testing.T) {
	store := NewMemoryListingStore()
	now := time.Now()

	cases := []struct {
		name   string
		mutate func(*ListingAttrs)
	}{
		{"missing make", func(a *ListingAttrs) { a.Make = "" }},
		{"missing model", func(a *ListingAttrs) { a.Model = "" }},
		{"year too old", func(a *ListingAttrs) { a.Year = 1899 }},
		{"year in the future", func(a *ListingAttrs) { a.Year = now.Year() + 2 }},
		{"zero price", func(a *ListingAttrs) { a.Price = 0 }},
		{"negative mileage", func(a *ListingAttrs) { a.Mileage = -1 }},
		{"missing location", func(a *ListingAttrs) { a.Location = "" }},
		{"bad condition", func(a *ListingAttrs) { a.Condition = "mint" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attrs := validAttrs()
			tc.mutate(&attrs)
			_, err := store.Create(context.Background(), uuid.New(), attrs, now, 0)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestCreateEnforcesActiveCap(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	now := time.Now()

	for i := 0; i < 5; i++ {
		_, err := store.Create(context.Background(), owner, validAttrs(), now, 5)
		require.NoError(t, err)
	}

	_, err := store.Create(context.Background(), owner, validAttrs(), now, 5)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Another seller is unaffected.
	_, err = store.Create(context.Background(), uuid.New(), validAttrs(), now, 5)
	assert.NoError(t, err)
}

func TestCreateCapFreesUpAfterSoldOrDeleted(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	now := time.Now()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		l, err := store.Create(context.Background(), owner, validAttrs(), now, 5)
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	_, err := store.Create(context.Background(), owner, validAttrs(), now, 5)
	require.ErrorIs(t, err, ErrQuotaExceeded)

	require.NoError(t, store.SetStatus(context.Background(), ids[0], models.ListingSold))

	_, err = store.Create(context.Background(), owner, validAttrs(), now, 5)
	assert.NoError(t, err)
}

func TestCreateUncappedForPremium(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	now := time.Now()

	for i := 0; i < 20; i++ {
		_, err := store.Create(context.Background(), owner, validAttrs(), now, 0)
		require.NoError(t, err)
	}

	count, err := store.CountActiveByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 20, count)
}

func TestSearchFiltersAndDefaultOrder(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(make, model string, year, price int, created time.Time) *models.Listing {
		attrs := validAttrs()
		attrs.Make = make
		attrs.Model = model
		attrs.Year = year
		attrs.Price = price
		l, err := store.Create(context.Background(), owner, attrs, created, 0)
		require.NoError(t, err)
		return l
	}

	old := mk("Toyota", "Corolla", 2015, 8000, base)
	mid := mk("Honda", "Civic", 2019, 15000, base.Add(time.Hour))
	newest := mk("Toyota", "Yaris", 2021, 13000, base.Add(2*time.Hour))

	// No filters: everything, newest first.
	results, err := store.Search(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, newest.ID, results[0].ID)
	assert.Equal(t, mid.ID, results[1].ID)
	assert.Equal(t, old.ID, results[2].ID)

	// Make filter is case-insensitive containment.
	results, err = store.Search(context.Background(), models.SearchCriteria{Make: "toy"})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Range filters are inclusive.
	minYear, maxYear := 2015, 2019
	results, err = store.Search(context.Background(), models.SearchCriteria{MinYear: &minYear, MaxYear: &maxYear})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Combined predicates are ANDed.
	maxPrice := 10000
	results, err = store.Search(context.Background(), models.SearchCriteria{Make: "Toyota", MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, old.ID, results[0].ID)
}

func TestSearchExcludesNonAvailable(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	now := time.Now()

	kept, err := store.Create(context.Background(), owner, validAttrs(), now, 0)
	require.NoError(t, err)
	sold, err := store.Create(context.Background(), owner, validAttrs(), now, 0)
	require.NoError(t, err)
	expired, err := store.Create(context.Background(), owner, validAttrs(), now, 0)
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(context.Background(), sold.ID, models.ListingSold))
	require.NoError(t, store.SetStatus(context.Background(), expired.ID, models.ListingExpired))

	results, err := store.Search(context.Background(), models.SearchCriteria{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.ID, results[0].ID)

	// Sold stays readable by direct link.
	got, err := store.GetByID(context.Background(), sold.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingSold, got.Status)
}

func TestSearchSortKeys(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	base := time.Now()

	mk := func(price, year, mileage int) *models.Listing {
		attrs := validAttrs()
		attrs.Price = price
		attrs.Year = year
		attrs.Mileage = mileage
		l, err := store.Create(context.Background(), owner, attrs, base, 0)
		require.NoError(t, err)
		return l
	}

	cheapOld := mk(5000, 2010, 150000)
	expensiveNew := mk(30000, 2024, 5000)
	midRange := mk(15000, 2019, 60000)

	results, err := store.Search(context.Background(), models.SearchCriteria{Sort: models.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []uuid.UUID{cheapOld.ID, midRange.ID, expensiveNew.ID},
		[]uuid.UUID{results[0].ID, results[1].ID, results[2].ID})

	results, err = store.Search(context.Background(), models.SearchCriteria{Sort: models.SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, expensiveNew.ID, results[0].ID)

	results, err = store.Search(context.Background(), models.SearchCriteria{Sort: models.SortYearDesc})
	require.NoError(t, err)
	assert.Equal(t, expensiveNew.ID, results[0].ID)

	results, err = store.Search(context.Background(), models.SearchCriteria{Sort: models.SortMileage})
	require.NoError(t, err)
	assert.Equal(t, expensiveNew.ID, results[0].ID)
	assert.Equal(t, cheapOld.ID, results[2].ID)
}

func TestRenewResetsExpiry(t *testing.T) {
	store := NewMemoryListingStore()
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	listing, err := store.Create(context.Background(), uuid.New(), validAttrs(), created, 0)
	require.NoError(t, err)

	renewedAt := created.Add(20 * 24 * time.Hour)
	require.NoError(t, store.Renew(context.Background(), listing.ID, renewedAt))

	got, err := store.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, renewedAt.Add(models.RenewalPeriod), got.ExpiresAt)
	assert.Equal(t, models.ListingAvailable, got.Status)
}

func TestExpireBoundaryAndIdempotence(t *testing.T) {
	store := NewMemoryListingStore()
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	expiry := created.Add(models.RenewalPeriod)

	listing, err := store.Create(context.Background(), uuid.New(), validAttrs(), created, 0)
	require.NoError(t, err)

	// One second before expiry: still live.
	n, err := store.Expire(context.Background(), expiry.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// At exactly the expiry instant the listing flips.
	n, err = store.Expire(context.Background(), expiry)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingExpired, got.Status)

	// Second pass with the same clock is a no-op.
	n, err = store.Expire(context.Background(), expiry)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestExpireSkipsSoldListings(t *testing.T) {
	store := NewMemoryListingStore()
	created := time.Now().Add(-2 * models.RenewalPeriod)

	listing, err := store.Create(context.Background(), uuid.New(), validAttrs(), created, 0)
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(context.Background(), listing.ID, models.ListingSold))

	n, err := store.Expire(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := store.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingSold, got.Status)
}

func TestListByOwnerHidesDeleted(t *testing.T) {
	store := NewMemoryListingStore()
	owner := uuid.New()
	now := time.Now()

	kept, err := store.Create(context.Background(), owner, validAttrs(), now, 0)
	require.NoError(t, err)
	deleted, err := store.Create(context.Background(), owner, validAttrs(), now, 0)
	require.NoError(t, err)

	require.NoError(t, store.SetStatus(context.Background(), deleted.ID, models.ListingDeleted))

	results, err := store.ListByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, kept.ID, results[0].ID)
}

func TestIncrementView(t *testing.T) {
	store := NewMemoryListingStore()
	listing, err := store.Create(context.Background(), uuid.New(), validAttrs(), time.Now(), 0)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.IncrementView(context.Background(), listing.ID))
	}

	got, err := store.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ViewCount)
}

func TestGetByIDUnknown(t *testing.T) {
	store := NewMemoryListingStore()
	_, err := store.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
