package fees

import "github.com/shopspring/decimal"

// DefaultPlatformRate is the platform's cut of every primary and secondary
// sale, applied to the gross amount.
const DefaultPlatformRate = 0.025

// Schedule computes the platform fee on gross trade amounts. Amounts are
// integer cents; the rate is applied with decimal math and rounded half-up
// so fee + net always equals gross.
type Schedule struct {
	rate decimal.Decimal
}

// NewSchedule creates a fee schedule with the given rate (e.g. 0.025 for
// 2.5%).
func NewSchedule(rate float64) Schedule {
	return Schedule{rate: decimal.NewFromFloat(rate)}
}

// DefaultSchedule returns the standard platform fee schedule.
func DefaultSchedule() Schedule {
	return NewSchedule(DefaultPlatformRate)
}

// PlatformFee returns the fee in cents charged on a gross amount in cents.
func (s Schedule) PlatformFee(grossCents int64) int64 {
	fee := decimal.NewFromInt(grossCents).Mul(s.rate)
	return fee.Round(0).IntPart()
}

// Net returns the proceeds in cents after the platform fee.
func (s Schedule) Net(grossCents int64) int64 {
	return grossCents - s.PlatformFee(grossCents)
}
