package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRate   = errors.New("invalid rate")
)

// Rates carries the configurable parts of a price breakdown. Percentages are
// expressed 0-100, the legal fee is a flat amount in minor units.
type Rates struct {
	DepositPercent   decimal.Decimal
	StampDutyPercent decimal.Decimal
	LegalFeesMinor   int64
}

// Breakdown itemizes a sale price. All values are minor units (cents),
// percentage components rounded half-up.
type Breakdown struct {
	TotalPrice    int64 `json:"total_price"`
	DepositAmount int64 `json:"deposit_amount"`
	StampDuty     int64 `json:"stamp_duty"`
	LegalFees     int64 `json:"legal_fees"`
	GrandTotal    int64 `json:"grand_total"`
}

// Calculate derives the full breakdown for a unit base price plus
// customization option costs. It is pure: no state, same inputs same outputs.
func Calculate(basePrice int64, optionCosts []int64, rates Rates) (Breakdown, error) {
	if basePrice < 0 {
		return Breakdown{}, ErrInvalidAmount
	}
	if rates.LegalFeesMinor < 0 {
		return Breakdown{}, ErrInvalidAmount
	}
	if !percentInRange(rates.DepositPercent) || !percentInRange(rates.StampDutyPercent) {
		return Breakdown{}, ErrInvalidRate
	}
	total := basePrice
	for _, cost := range optionCosts {
		if cost < 0 {
			return Breakdown{}, ErrInvalidAmount
		}
		total += cost
	}
	deposit := percentOf(total, rates.DepositPercent)
	stampDuty := percentOf(total, rates.StampDutyPercent)
	return Breakdown{
		TotalPrice:    total,
		DepositAmount: deposit,
		StampDuty:     stampDuty,
		LegalFees:     rates.LegalFeesMinor,
		GrandTotal:    total + stampDuty + rates.LegalFeesMinor,
	}, nil
}

// percentOf rounds half-up to the minor unit. decimal.Round rounds half away
// from zero, which is half-up for the non-negative amounts handled here.
func percentOf(amountMinor int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(amountMinor).
		Mul(percent).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

func percentInRange(percent decimal.Decimal) bool {
	return !percent.IsNegative() && percent.LessThanOrEqual(decimal.NewFromInt(100))
}
