package utils

import "errors"

var (
	ErrGatewayUnconfigured  = errors.New("payment gateway not configured")
	ErrGatewayError         = errors.New("payment gateway error")
	ErrPlanNotFound         = errors.New("subscription plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrAccountNotFound      = errors.New("account not found")
	ErrInvalidPlanName      = errors.New("invalid plan name")
	ErrInvalidStatus        = errors.New("invalid subscription status")
	ErrResumeLimitReached   = errors.New("resume limit reached for current plan")
	ErrConcurrentUpdate     = errors.New("subscription was modified concurrently")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDatabaseError        = errors.New("database error")
)
