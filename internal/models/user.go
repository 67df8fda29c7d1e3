package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanTier is the user's subscription level.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanPremium PlanTier = "premium"
)

// FreeListingLimit is the maximum number of simultaneously available
// listings a free-tier user may hold.
const FreeListingLimit = 5

type User struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Phone         string    `json:"phone,omitempty"`
	PhoneVerified bool      `json:"phone_verified"`
	PlanTier      PlanTier  `json:"plan_tier"`
	// FreeListingsUsed counts lifetime free-tier creations. Informational
	// only: the quota gate is the live available-listing count.
	FreeListingsUsed int       `json:"free_listings_used"`
	CreatedAt        time.Time `json:"created_at"`
	IsActive         bool      `json:"is_active"`
}

// IsPremium reports whether the user is on the premium tier.
func (u *User) IsPremium() bool {
	return u.PlanTier == PlanPremium
}
