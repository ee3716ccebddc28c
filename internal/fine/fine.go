// Package fine computes overdue fines from an issue date and a policy.
package fine

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultGracePeriodDays is the number of days a copy may be kept before
// fines accrue.
const DefaultGracePeriodDays = 15

const day = 24 * time.Hour

// DefaultDailyRate is charged per overdue day when no policy is configured.
var DefaultDailyRate = decimal.NewFromInt(10)

// Policy holds the parameters of the fine calculation.
type Policy struct {
	GracePeriodDays int
	DailyRate       decimal.Decimal
}

// DefaultPolicy returns the 15 day grace period at 10 per day.
func DefaultPolicy() Policy {
	return Policy{GracePeriodDays: DefaultGracePeriodDays, DailyRate: DefaultDailyRate}
}

// Assessment is the outcome of one fine calculation.
type Assessment struct {
	DaysOverdue int             `json:"daysOverdue"`
	Amount      decimal.Decimal `json:"amount"`
}

// ElapsedDays counts whole days between issuedAt and now. Partial days are
// truncated and a now before issuedAt yields zero.
func ElapsedDays(issuedAt, now time.Time) int {
	if !now.After(issuedAt) {
		return 0
	}
	return int(now.Sub(issuedAt) / day)
}

// Calculate maps an issue date and the current time to the days overdue and
// the amount due. It has no side effects.
func (p Policy) Calculate(issuedAt, now time.Time) Assessment {
	overdue := ElapsedDays(issuedAt, now) - p.GracePeriodDays
	if overdue < 0 {
		overdue = 0
	}
	return Assessment{
		DaysOverdue: overdue,
		Amount:      p.DailyRate.Mul(decimal.NewFromInt(int64(overdue))),
	}
}

// Calculate applies the default policy.
func Calculate(issuedAt, now time.Time) Assessment {
	return DefaultPolicy().Calculate(issuedAt, now)
}
