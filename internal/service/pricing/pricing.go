// Package pricing computes walk charges and the platform commission split.
package pricing

import (
	"github.com/shopspring/decimal"

	apperrors "github.com/paseoapp/walk-api/pkg/errors"
)

// ErrInvalidDuration is returned for a duration outside the rate table.
var ErrInvalidDuration = apperrors.Validation("Duración inválida, debe ser 30 o 60 minutos")

// Rates maps walk duration in minutes to the per-pet, per-day price.
var Rates = map[int]int64{
	30: 5000,
	60: 10000,
}

// CommissionRate is the platform share of every settled payment.
var CommissionRate = decimal.NewFromFloat(0.10)

// ValidDuration reports whether duration has a rate.
func ValidDuration(duration int) bool {
	_, ok := Rates[duration]
	return ok
}

// Amount is base(duration) × petCount × dayCount.
func Amount(duration, petCount, dayCount int) (int64, error) {
	base, ok := Rates[duration]
	if !ok {
		return 0, ErrInvalidDuration
	}
	return base * int64(petCount) * int64(dayCount), nil
}

// Split divides amount into the rounded commission and the walker share.
// The two parts always add up to amount.
func Split(amount int64) (commission, walkerAmount int64) {
	commission = decimal.NewFromInt(amount).Mul(CommissionRate).Round(0).IntPart()
	return commission, amount - commission
}
