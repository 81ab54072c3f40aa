package response_models

import (
	"time"

	"github.com/google/uuid"
	"rightmycv/internal/models/db_models"
)

type SubscriptionPlan struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	PriceUSD     float64   `json:"price_usd"`
	PriceNGN     float64   `json:"price_ngn"`
	BillingCycle string    `json:"billing_cycle"`
	Features     []string  `json:"features,omitempty"`
	IsActive     bool      `json:"is_active"`
}

func NewSubscriptionPlan(p *db_models.Plan) SubscriptionPlan {
	return SubscriptionPlan{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		PriceUSD:     p.PriceUSD,
		PriceNGN:     p.PriceNGN,
		BillingCycle: string(p.BillingCycle),
		Features:     []string(p.Features),
		IsActive:     p.IsActive,
	}
}

type SubscriptionResponse struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	PlanID             uuid.UUID  `json:"plan_id"`
	PlanName           string     `json:"plan_name"`
	Status             string     `json:"status"`
	BillingCycle       string     `json:"billing_cycle"`
	Amount             float64    `json:"amount"`
	Currency           string     `json:"currency"`
	PaymentReference   string     `json:"payment_reference"`
	PaymentDate        time.Time  `json:"payment_date"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	NextBillingDate    time.Time  `json:"next_billing_date"`
	AutoRenew          bool       `json:"auto_renew"`
	PaymentHistory     []string   `json:"payment_history"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	LastPaymentDate    *time.Time `json:"last_payment_date,omitempty"`
	NextPaymentDate    *time.Time `json:"next_payment_date,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

func NewSubscriptionResponse(s *db_models.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 s.ID,
		UserID:             s.UserID,
		PlanID:             s.PlanID,
		PlanName:           s.PlanName,
		Status:             string(s.Status),
		BillingCycle:       string(s.BillingCycle),
		Amount:             s.Amount,
		Currency:           s.Currency,
		PaymentReference:   s.PaymentReference,
		PaymentDate:        s.PaymentDate,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		NextBillingDate:    s.NextBillingDate,
		AutoRenew:          s.AutoRenew,
		PaymentHistory:     []string(s.PaymentHistory),
		CancelledAt:        s.CancelledAt,
		CancellationReason: s.CancellationReason,
		LastPaymentDate:    s.LastPaymentDate,
		NextPaymentDate:    s.NextPaymentDate,
		CreatedAt:          s.CreatedAt,
	}
}

func NewSubscriptionResponses(subs []db_models.Subscription) []SubscriptionResponse {
	out := make([]SubscriptionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, NewSubscriptionResponse(&subs[i]))
	}
	return out
}
