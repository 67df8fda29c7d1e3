package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/autoagora/autoagora-backend/internal/models"
)

// ListingAttrs carries the caller-supplied fields for a new listing.
type ListingAttrs struct {
	Make         string
	Model        string
	Year         int
	Price        int
	Mileage      int
	Condition    string
	Color        string
	FuelType     string
	Transmission string
	BodyType     string
	Description  string
	Location     string
	ImageURLs    []string
}

// ListingStore is the persistence boundary for listings. Implementations:
// PostgresListingStore for production, MemoryListingStore for tests and
// local development without a database.
type ListingStore interface {
	// Create validates attrs, assigns status=available, viewCount=0 and
	// expiry = now + one renewal period, then persists the listing.
	// maxActive > 0 caps the owner's available listings: the count is
	// re-checked atomically with the insert so two concurrent creations
	// cannot both slip under the cap. maxActive <= 0 means uncapped.
	Create(ctx context.Context, ownerID uuid.UUID, attrs ListingAttrs, now time.Time, maxActive int) (*models.Listing, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	// Search returns available listings matching every set predicate,
	// ordered by criteria.Sort (newest-first by default).
	Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Listing, error)
	// SetStatus flips a listing to the given status.
	SetStatus(ctx context.Context, id uuid.UUID, status models.ListingStatus) error
	// Renew resets expiry to now + one renewal period without touching status.
	Renew(ctx context.Context, id uuid.UUID, now time.Time) error
	// UpdateAttrs overwrites the editable fields of a listing.
	UpdateAttrs(ctx context.Context, id uuid.UUID, attrs ListingAttrs) error
	// IncrementView bumps the view counter. Best-effort: a lost increment
	// under concurrency is acceptable and must never block a read.
	IncrementView(ctx context.Context, id uuid.UUID) error
	// CountActiveByOwner counts the owner's available listings (quota input).
	CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error)
	// ListByOwner returns all of an owner's listings except deleted ones,
	// newest-first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Listing, error)
	// Expire flips every available listing with expiry <= now to expired
	// and returns how many were flipped. Idempotent for a fixed now.
	Expire(ctx context.Context, now time.Time) (int, error)
}

// ValidateListingAttrs applies the creation rules shared by every store.
func ValidateListingAttrs(attrs ListingAttrs, now time.Time) error {
	if attrs.Make == "" {
		return &ValidationError{Field: "make", Message: "is required"}
	}
	if attrs.Model == "" {
		return &ValidationError{Field: "model", Message: "is required"}
	}
	if attrs.Year < 1900 || attrs.Year > now.Year()+1 {
		return &ValidationError{Field: "year", Message: "is out of range"}
	}
	if attrs.Price < 1 {
		return &ValidationError{Field: "price", Message: "must be at least 1"}
	}
	if attrs.Mileage < 0 {
		return &ValidationError{Field: "mileage", Message: "must not be negative"}
	}
	if attrs.Location == "" {
		return &ValidationError{Field: "location", Message: "is required"}
	}
	if attrs.Color == "" {
		return &ValidationError{Field: "color", Message: "is required"}
	}
	if !models.IsValidCondition(attrs.Condition) {
		return &ValidationError{Field: "condition", Message: "must be one of new, used, damaged"}
	}
	return nil
}
