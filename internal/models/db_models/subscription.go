package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"

	"rightmycv/pkg/entitlement"
)

type SubscriptionStatus string

const (
	SubStatusActive    SubscriptionStatus = "active"
	SubStatusCancelled SubscriptionStatus = "cancelled"
	SubStatusExpired   SubscriptionStatus = "expired"
	SubStatusPending   SubscriptionStatus = "pending"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubStatusActive, SubStatusCancelled, SubStatusExpired, SubStatusPending:
		return true
	}
	return false
}

// Subscription is one billing agreement between a user and a plan. Rows are
// never removed; a user's history is the set of their rows.
type Subscription struct {
	BaseModel
	UserID   uuid.UUID `gorm:"type:uuid;index;not null"`
	PlanID   uuid.UUID `gorm:"type:uuid;index;not null"`
	PlanName string    `gorm:"not null"`

	Status       SubscriptionStatus       `gorm:"type:varchar(16);index;not null"`
	BillingCycle entitlement.BillingCycle `gorm:"type:varchar(16);not null"`
	Amount       float64                  `gorm:"not null"` // major units
	Currency     string                   `gorm:"size:3;not null"`

	PaymentReference   string    `gorm:"index;not null"`
	PaymentDate        time.Time `gorm:"not null"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"index;not null"`
	NextBillingDate    time.Time `gorm:"not null"`
	AutoRenew          bool

	PaymentHistory pq.StringArray `gorm:"type:text[]"`

	CancelledAt        *time.Time
	CancellationReason *string
	LastPaymentDate    *time.Time
	NextPaymentDate    *time.Time `gorm:"index"`

	Metadata datatypes.JSON `gorm:"type:jsonb"`
}

func (s *Subscription) HasPayment(reference string) bool {
	for _, r := range s.PaymentHistory {
		if r == reference {
			return true
		}
	}
	return false
}
