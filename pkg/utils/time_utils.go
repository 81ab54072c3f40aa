package utils

import (
	"time"

	"rightmycv/pkg/entitlement"
)

// AddMonthsClamped moves t by months calendar months, keeping the clock time.
// When the day of month does not exist in the target month it clamps to the
// last day (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()

	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// AddBillingPeriod advances t by one billing cycle.
func AddBillingPeriod(t time.Time, cycle entitlement.BillingCycle) time.Time {
	if cycle == entitlement.CycleAnnual {
		return AddMonthsClamped(t, 12)
	}
	return AddMonthsClamped(t, 1)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseGatewayTime parses an RFC3339 timestamp from the payment gateway,
// returning fallback when the value is empty or malformed.
func ParseGatewayTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fallback
	}
	return t
}
