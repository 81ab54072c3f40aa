package request_models

import "time"

type InitializePaymentRequest struct {
	PlanID      string  `json:"plan_id" binding:"required"`
	PlanName    string  `json:"plan_name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency"`
	CallbackURL string  `json:"callback_url" binding:"omitempty,url"`
}

type CancelSubscriptionRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

type RecordRenewalRequest struct {
	PaymentReference string     `json:"payment_reference" binding:"required"`
	PaymentDate      *time.Time `json:"payment_date"`
}
