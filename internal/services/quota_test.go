package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autoagora/autoagora-backend/internal/models"
)

func TestQuotaFreeTier(t *testing.T) {
	policy := NewQuotaPolicy()
	user := &models.User{PlanTier: models.PlanFree}

	decision := policy.CanCreate(user, 0)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 4, decision.Remaining)

	decision = policy.CanCreate(user, 4)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Remaining)

	decision = policy.CanCreate(user, 5)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.PaymentRequired)
}

func TestQuotaPremiumUncapped(t *testing.T) {
	policy := NewQuotaPolicy()
	user := &models.User{PlanTier: models.PlanPremium}

	decision := policy.CanCreate(user, 500)
	assert.True(t, decision.Allowed)
	assert.Equal(t, -1, decision.Remaining)
}

func TestQuotaMaxActive(t *testing.T) {
	policy := NewQuotaPolicy()

	assert.Equal(t, models.FreeListingLimit, policy.MaxActive(&models.User{PlanTier: models.PlanFree}))
	assert.Equal(t, 0, policy.MaxActive(&models.User{PlanTier: models.PlanPremium}))
}
