package services

import (
	"context"
	"log"

	"github.com/autoagora/autoagora-backend/internal/models"
)

// QuotaDecision is the outcome of a listing-creation gate check.
type QuotaDecision struct {
	Allowed bool
	// PaymentRequired is set when the denial should be answered with a
	// premium-upgrade prompt rather than a plain error.
	PaymentRequired bool
	// Remaining is how many more listings the user may create on their
	// current tier. -1 means unlimited.
	Remaining int
}

// QuotaPolicy gates listing creation by plan tier and live active count.
type QuotaPolicy struct {
	FreeLimit int
}

func NewQuotaPolicy() *QuotaPolicy {
	return &QuotaPolicy{FreeLimit: models.FreeListingLimit}
}

// CanCreate decides whether the user may create another listing given their
// current count of available listings. Premium users are never capped.
func (p *QuotaPolicy) CanCreate(user *models.User, activeListingCount int) QuotaDecision {
	if user.IsPremium() {
		return QuotaDecision{Allowed: true, Remaining: -1}
	}
	if activeListingCount < p.FreeLimit {
		return QuotaDecision{Allowed: true, Remaining: p.FreeLimit - activeListingCount - 1}
	}
	return QuotaDecision{Allowed: false, PaymentRequired: true}
}

// MaxActive returns the cap the listing store should enforce atomically at
// insert time: 0 (uncapped) for premium, FreeLimit for free tier.
func (p *QuotaPolicy) MaxActive(user *models.User) int {
	if user.IsPremium() {
		return 0
	}
	return p.FreeLimit
}

// RecordFreeCreation bumps the lifetime free-listings counter after a
// successful free-tier creation. The counter is display-only, so a failure
// here is logged and never fails the request.
func (p *QuotaPolicy) RecordFreeCreation(ctx context.Context, users UserStore, user *models.User) {
	if user.IsPremium() {
		return
	}
	if err := users.IncrementFreeListingsUsed(ctx, user.ID); err != nil {
		log.Printf("failed to bump free-listings counter for %s: %v", user.ID, err)
	}
}
