package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"rightmycv/pkg/entitlement"
)

func TestLimitsFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		plan      string
		ceiling   int64
		canCreate bool
	}{
		{"Free", 1, true},
		{"Premium", 10, true},
		{"Premium Annual", 10, true},
		{"Professional", entitlement.Unlimited, true},
		{"Professional Annual", entitlement.Unlimited, true},
		{"Gold", 0, false},
		{"", 0, false},
		{"premium", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			l := entitlement.LimitsFor(tt.plan)
			assert.Equal(t, tt.ceiling, l.Ceiling)
			assert.Equal(t, tt.canCreate, l.CanCreate)
		})
	}
}

func TestIsWithinLimit(t *testing.T) {
	t.Parallel()

	assert.True(t, entitlement.IsWithinLimit("Free", 0))
	assert.False(t, entitlement.IsWithinLimit("Free", 1))
	assert.True(t, entitlement.IsWithinLimit("Premium", 9))
	assert.False(t, entitlement.IsWithinLimit("Premium", 10))
	assert.True(t, entitlement.IsWithinLimit("Professional", 1_000_000))
	assert.False(t, entitlement.IsWithinLimit("Gold", 0))
}

func TestTierCycles(t *testing.T) {
	t.Parallel()

	for _, tier := range entitlement.Tiers() {
		_, ok := entitlement.ParseTier(string(tier))
		assert.True(t, ok, tier)
	}

	assert.Equal(t, entitlement.CycleAnnual, entitlement.CycleFor(entitlement.TierPremiumAnnual))
	assert.Equal(t, entitlement.CycleAnnual, entitlement.CycleFor(entitlement.TierProfessionalAnnual))
	assert.Equal(t, entitlement.CycleMonthly, entitlement.CycleFor(entitlement.TierPremium))
	assert.Equal(t, entitlement.CycleMonthly, entitlement.CycleFor(entitlement.TierFree))

	_, ok := entitlement.ParseTier("Enterprise")
	assert.False(t, ok)
}
