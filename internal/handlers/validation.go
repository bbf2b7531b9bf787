package handlers

import (
	"errors"

	"propsales/internal/money"
)

var errInvalidAmount = errors.New("invalid amount")

func parseAmountMinor(raw string) (int64, error) {
	amount, err := money.ParseMinor(raw)
	if err != nil || amount <= 0 {
		return 0, errInvalidAmount
	}
	return amount, nil
}

// parseCostMinor accepts zero, for no-cost options like paint colours.
func parseCostMinor(raw string) (int64, error) {
	cost, err := money.ParseMinor(raw)
	if err != nil || cost < 0 {
		return 0, errInvalidAmount
	}
	return cost, nil
}
