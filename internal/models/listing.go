package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListingStatus enumerates the lifecycle states of a listing.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingSold      ListingStatus = "sold"
	ListingExpired   ListingStatus = "expired"
	ListingDeleted   ListingStatus = "deleted"
)

// RenewalPeriod is how long a listing stays live after creation or renewal.
const RenewalPeriod = 30 * 24 * time.Hour

// ValidConditions are the condition values accepted on a listing.
var ValidConditions = []string{"new", "used", "damaged"}

// Listing is a single car-for-sale record owned by a user.
type Listing struct {
	ID           uuid.UUID     `json:"id"`
	OwnerID      uuid.UUID     `json:"owner_id"`
	Make         string        `json:"make"`
	Model        string        `json:"model"`
	Year         int           `json:"year"`
	Price        int           `json:"price"`
	Mileage      int           `json:"mileage"`
	Condition    string        `json:"condition"`
	Color        string        `json:"color"`
	FuelType     string        `json:"fuel_type,omitempty"`
	Transmission string        `json:"transmission,omitempty"`
	BodyType     string        `json:"body_type,omitempty"`
	Description  string        `json:"description,omitempty"`
	Location     string        `json:"location"`
	ImageURLs    []string      `json:"image_urls,omitempty"`
	Status       ListingStatus `json:"status"`
	ViewCount    int           `json:"view_count"`
	CreatedAt    time.Time     `json:"created_at"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortYearDesc  SortKey = "year_desc"
	SortMileage   SortKey = "mileage_asc"
)

// SearchCriteria holds the optional predicates for listing search.
// Zero-valued fields match everything.
type SearchCriteria struct {
	Make         string
	Model        string
	MinYear      *int
	MaxYear      *int
	MinPrice     *int
	MaxPrice     *int
	MinMileage   *int
	MaxMileage   *int
	Condition    string
	Location     string
	FuelType     string
	Transmission string
	BodyType     string
	Sort         SortKey
}

// Matches reports whether a listing satisfies every set predicate.
// Status filtering is the store's job; this checks attributes only.
func (c SearchCriteria) Matches(l *Listing) bool {
	if c.Make != "" && !strings.Contains(strings.ToLower(l.Make), strings.ToLower(c.Make)) {
		return false
	}
	if c.Model != "" && !strings.Contains(strings.ToLower(l.Model), strings.ToLower(c.Model)) {
		return false
	}
	if c.MinYear != nil && l.Year < *c.MinYear {
		return false
	}
	if c.MaxYear != nil && l.Year > *c.MaxYear {
		return false
	}
	if c.MinPrice != nil && l.Price < *c.MinPrice {
		return false
	}
	if c.MaxPrice != nil && l.Price > *c.MaxPrice {
		return false
	}
	if c.MinMileage != nil && l.Mileage < *c.MinMileage {
		return false
	}
	if c.MaxMileage != nil && l.Mileage > *c.MaxMileage {
		return false
	}
	if c.Condition != "" && !strings.EqualFold(l.Condition, c.Condition) {
		return false
	}
	if c.Location != "" && !strings.EqualFold(l.Location, c.Location) {
		return false
	}
	if c.FuelType != "" && !strings.EqualFold(l.FuelType, c.FuelType) {
		return false
	}
	if c.Transmission != "" && !strings.EqualFold(l.Transmission, c.Transmission) {
		return false
	}
	if c.BodyType != "" && !strings.EqualFold(l.BodyType, c.BodyType) {
		return false
	}
	return true
}

// SortListings orders results in place by the requested key.
// Ties always break by id ascending so pagination stays stable.
func SortListings(listings []*Listing, key SortKey) {
	less := func(a, b *Listing) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch key {
	case SortPriceAsc:
		less = func(a, b *Listing) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b *Listing) bool { return a.Price > b.Price }
	case SortYearDesc:
		less = func(a, b *Listing) bool { return a.Year > b.Year }
	case SortMileage:
		less = func(a, b *Listing) bool { return a.Mileage < b.Mileage }
	}
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := listings[i], listings[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID.String() < b.ID.String()
	})
}

// IsValidCondition reports whether v is one of the accepted condition values.
func IsValidCondition(v string) bool {
	for _, c := range ValidConditions {
		if strings.EqualFold(v, c) {
			return true
		}
	}
	return false
}
