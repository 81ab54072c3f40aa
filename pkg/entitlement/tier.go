package entitlement

type Tier string

const (
	TierFree               Tier = "Free"
	TierPremium            Tier = "Premium"
	TierPremiumAnnual      Tier = "Premium Annual"
	TierProfessional       Tier = "Professional"
	TierProfessionalAnnual Tier = "Professional Annual"
)

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

var tiers = map[Tier]BillingCycle{
	TierFree:               CycleMonthly,
	TierPremium:            CycleMonthly,
	TierPremiumAnnual:      CycleAnnual,
	TierProfessional:       CycleMonthly,
	TierProfessionalAnnual: CycleAnnual,
}

// Tiers lists every plan tier in catalog order.
func Tiers() []Tier {
	return []Tier{TierFree, TierPremiumAnnual, TierPremium, TierProfessionalAnnual, TierProfessional}
}

// ParseTier matches name exactly against the known tiers.
func ParseTier(name string) (Tier, bool) {
	t := Tier(name)
	_, ok := tiers[t]
	return t, ok
}

// CycleFor returns the billing cycle a tier is sold on. Unknown tiers bill monthly.
func CycleFor(t Tier) BillingCycle {
	if c, ok := tiers[t]; ok {
		return c
	}
	return CycleMonthly
}

func (c BillingCycle) Valid() bool {
	return c == CycleMonthly || c == CycleAnnual
}
