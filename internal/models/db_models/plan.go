package db_models

import (
	"gorm.io/datatypes"

	"rightmycv/pkg/entitlement"
)

type Plan struct {
	BaseModel
	Name             string                      `gorm:"uniqueIndex;not null"` // tier label, e.g. "Premium Annual"
	Description      string
	PriceUSD         float64                     `gorm:"column:price_usd"`
	PriceNGN         float64                     `gorm:"column:price_ngn"`
	BillingCycle     entitlement.BillingCycle    `gorm:"type:varchar(16);not null"`
	Features         datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	IsActive         bool                        `gorm:"not null"`
	StripePriceID    *string
	PaystackPlanCode *string
}
