package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentPurpose says what a completed payment unlocks.
type PaymentPurpose string

const (
	// PaymentPremiumUpgrade flips the payer to the premium tier.
	PaymentPremiumUpgrade PaymentPurpose = "premium_upgrade"
	// PaymentListingRenewal renews a single listing for another period.
	PaymentListingRenewal PaymentPurpose = "listing_renewal"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment records a checkout with the external payment provider.
// The provider itself is opaque; we only track our reference and the outcome.
type Payment struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	ListingID   *uuid.UUID     `json:"listing_id,omitempty"` // set for renewals
	Purpose     PaymentPurpose `json:"purpose"`
	AmountCents int            `json:"amount_cents"`
	Currency    string         `json:"currency"`
	ProviderRef string         `json:"provider_ref"`
	Status      PaymentStatus  `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}
