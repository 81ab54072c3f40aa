package db_models

import "rightmycv/pkg/entitlement"

type Account struct {
	BaseModel
	Email            string `gorm:"uniqueIndex;not null"`
	FirstName        string
	LastName         string
	SubscriptionPlan string `gorm:"not null;default:'Free'"`
}

func (a *Account) Plan() string {
	if a.SubscriptionPlan == "" {
		return string(entitlement.TierFree)
	}
	return a.SubscriptionPlan
}
