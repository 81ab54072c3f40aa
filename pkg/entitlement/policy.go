package entitlement

// Unlimited marks a ceiling with no upper bound.
const Unlimited int64 = -1

type Limits struct {
	Ceiling   int64 `json:"ceiling"`
	CanCreate bool  `json:"can_create"`
}

func (l Limits) IsUnlimited() bool {
	return l.Ceiling == Unlimited
}

var resumeCeilings = map[Tier]int64{
	TierFree:               1,
	TierPremium:            10,
	TierPremiumAnnual:      10,
	TierProfessional:       Unlimited,
	TierProfessionalAnnual: Unlimited,
}

// LimitsFor maps a plan name to its resume ceiling. Unknown names fail closed.
func LimitsFor(planName string) Limits {
	ceiling, ok := resumeCeilings[Tier(planName)]
	if !ok {
		return Limits{Ceiling: 0, CanCreate: false}
	}
	return Limits{Ceiling: ceiling, CanCreate: true}
}

// IsWithinLimit reports whether an owner of planName holding currentCount
// resumes may create another one.
func IsWithinLimit(planName string, currentCount int64) bool {
	l := LimitsFor(planName)
	if !l.CanCreate {
		return false
	}
	if l.IsUnlimited() {
		return true
	}
	return currentCount < l.Ceiling
}
