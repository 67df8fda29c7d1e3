package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int { return &n }

func sampleListing() *Listing {
	return &Listing{
		ID:           uuid.New(),
		Make:         "Toyota",
		Model:        "Corolla",
		Year:         2018,
		Price:        12500,
		Mileage:      64000,
		Condition:    "used",
		Location:     "Limassol",
		FuelType:     "petrol",
		Transmission: "manual",
		BodyType:     "sedan",
		Status:       ListingAvailable,
	}
}

func TestCriteriaMatches(t *testing.T) {
	l := sampleListing()

	cases := []struct {
		name     string
		criteria SearchCriteria
		want     bool
	}{
		{"empty criteria", SearchCriteria{}, true},
		{"make containment", SearchCriteria{Make: "toy"}, true},
		{"make mismatch", SearchCriteria{Make: "Honda"}, false},
		{"model containment", SearchCriteria{Model: "corol"}, true},
		{"condition exact case-insensitive", SearchCriteria{Condition: "USED"}, true},
		{"condition mismatch", SearchCriteria{Condition: "new"}, false},
		{"location exact", SearchCriteria{Location: "limassol"}, true},
		{"location partial does not match", SearchCriteria{Location: "limas"}, false},
		{"year lower bound inclusive", SearchCriteria{MinYear: intPtr(2018)}, true},
		{"year upper bound inclusive", SearchCriteria{MaxYear: intPtr(2018)}, true},
		{"year below range", SearchCriteria{MinYear: intPtr(2019)}, false},
		{"price in range", SearchCriteria{MinPrice: intPtr(10000), MaxPrice: intPtr(13000)}, true},
		{"price above max", SearchCriteria{MaxPrice: intPtr(12000)}, false},
		{"mileage in range", SearchCriteria{MaxMileage: intPtr(64000)}, true},
		{"fuel type exact", SearchCriteria{FuelType: "Petrol"}, true},
		{"transmission mismatch", SearchCriteria{Transmission: "automatic"}, false},
		{"body type exact", SearchCriteria{BodyType: "SEDAN"}, true},
		{"all predicates together", SearchCriteria{
			Make: "Toyota", Model: "Corolla", Condition: "used",
			MinYear: intPtr(2015), MaxPrice: intPtr(20000),
		}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.criteria.Matches(l))
		})
	}
}

func TestSortListingsTieBreak(t *testing.T) {
	created := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	a := sampleListing()
	b := sampleListing()
	a.CreatedAt = created
	b.CreatedAt = created
	a.Price = 100
	b.Price = 100

	listings := []*Listing{a, b}
	SortListings(listings, SortNewest)

	// Equal keys fall back to id ascending, so order is deterministic.
	assert.True(t, listings[0].ID.String() < listings[1].ID.String())

	SortListings(listings, SortPriceAsc)
	assert.True(t, listings[0].ID.String() < listings[1].ID.String())
}

func TestSortListingsKeys(t *testing.T) {
	older := sampleListing()
	older.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older.Price = 5000
	older.Year = 2010
	older.Mileage = 150000

	newer := sampleListing()
	newer.CreatedAt = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer.Price = 20000
	newer.Year = 2023
	newer.Mileage = 10000

	listings := []*Listing{older, newer}

	SortListings(listings, SortNewest)
	assert.Equal(t, newer.ID, listings[0].ID)

	SortListings(listings, SortPriceAsc)
	assert.Equal(t, older.ID, listings[0].ID)

	SortListings(listings, SortPriceDesc)
	assert.Equal(t, newer.ID, listings[0].ID)

	SortListings(listings, SortYearDesc)
	assert.Equal(t, newer.ID, listings[0].ID)

	SortListings(listings, SortMileage)
	assert.Equal(t, newer.ID, listings[0].ID)
}

func TestIsValidCondition(t *testing.T) {
	assert.True(t, IsValidCondition("new"))
	assert.True(t, IsValidCondition("Used"))
	assert.True(t, IsValidCondition("DAMAGED"))
	assert.False(t, IsValidCondition("mint"))
	assert.False(t, IsValidCondition(""))
}
