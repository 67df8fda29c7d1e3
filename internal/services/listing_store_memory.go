package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autoagora/autoagora-backend/internal/models"
)

// MemoryListingStore keeps listings in a mutex-guarded map. It backs the
// unit tests and lets the server run without Postgres in development.
type MemoryListingStore struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*models.Listing
}

func NewMemoryListingStore() *MemoryListingStore {
	return &MemoryListingStore{listings: make(map[uuid.UUID]*models.Listing)}
}

func (s *MemoryListingStore) Create(ctx context.Context, ownerID uuid.UUID, attrs ListingAttrs, now time.Time, maxActive int) (*models.Listing, error) {
	if err := ValidateListingAttrs(attrs, now); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Holding the lock across check and insert keeps the cap race-free,
	// mirroring the transactional re-check in the Postgres store.
	if maxActive > 0 {
		active := 0
		for _, l := range s.listings {
			if l.OwnerID == ownerID && l.Status == models.ListingAvailable {
				active++
			}
		}
		if active >= maxActive {
			return nil, ErrQuotaExceeded
		}
	}

	listing := &models.Listing{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Make:         attrs.Make,
		Model:        attrs.Model,
		Year:         attrs.Year,
		Price:        attrs.Price,
		Mileage:      attrs.Mileage,
		Condition:    strings.ToLower(attrs.Condition),
		Color:        attrs.Color,
		FuelType:     attrs.FuelType,
		Transmission: attrs.Transmission,
		BodyType:     attrs.BodyType,
		Description:  attrs.Description,
		Location:     attrs.Location,
		ImageURLs:    attrs.ImageURLs,
		Status:       models.ListingAvailable,
		CreatedAt:    now,
		ExpiresAt:    now.Add(models.RenewalPeriod),
	}
	s.listings[listing.ID] = listing

	copied := *listing
	return &copied, nil
}

func (s *MemoryListingStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (s *MemoryListingStore) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Listing, error) {
	s.mu.Lock()
	var results []*models.Listing
	for _, l := range s.listings {
		if l.Status != models.ListingAvailable {
			continue
		}
		if criteria.Matches(l) {
			copied := *l
			results = append(results, &copied)
		}
	}
	s.mu.Unlock()

	models.SortListings(results, criteria.Sort)
	return results, nil
}

func (s *MemoryListingStore) SetStatus(ctx context.Context, id uuid.UUID, status models.ListingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.Status = status
	return nil
}

func (s *MemoryListingStore) Renew(ctx context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.ExpiresAt = now.Add(models.RenewalPeriod)
	return nil
}

func (s *MemoryListingStore) UpdateAttrs(ctx context.Context, id uuid.UUID, attrs ListingAttrs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.Make = attrs.Make
	l.Model = attrs.Model
	l.Year = attrs.Year
	l.Price = attrs.Price
	l.Mileage = attrs.Mileage
	l.Condition = strings.ToLower(attrs.Condition)
	l.Color = attrs.Color
	l.FuelType = attrs.FuelType
	l.Transmission = attrs.Transmission
	l.BodyType = attrs.BodyType
	l.Description = attrs.Description
	l.Location = attrs.Location
	l.ImageURLs = attrs.ImageURLs
	return nil
}

func (s *MemoryListingStore) IncrementView(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return ErrNotFound
	}
	l.ViewCount++
	return nil
}

func (s *MemoryListingStore) CountActiveByOwner(ctx context.Context, ownerID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.listings {
		if l.OwnerID == ownerID && l.Status == models.ListingAvailable {
			count++
		}
	}
	return count, nil
}

func (s *MemoryListingStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Listing, error) {
	s.mu.Lock()
	var results []*models.Listing
	for _, l := range s.listings {
		if l.OwnerID == ownerID && l.Status != models.ListingDeleted {
			copied := *l
			results = append(results, &copied)
		}
	}
	s.mu.Unlock()

	models.SortListings(results, models.SortNewest)
	return results, nil
}

func (s *MemoryListingStore) Expire(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expired := 0
	for _, l := range s.listings {
		if l.Status == models.ListingAvailable && !l.ExpiresAt.After(now) {
			l.Status = models.ListingExpired
			expired++
		}
	}
	return expired, nil
}
