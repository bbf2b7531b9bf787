package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("amount has too many decimal places")
)

// ParseMinor converts a decimal amount string like "295000.00" into euro
// cents. At most two decimal places are accepted; amounts are never rounded
// here, a third decimal digit is a caller error.
func ParseMinor(input string) (int64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	sign := int64(1)
	if s[0] == '-' || s[0] == '+' {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) {
		return 0, ErrInvalidAmount
	}
	if hasFrac {
		if len(frac) > 2 {
			return 0, ErrTooManyDecimals
		}
		if frac == "" || !isDigits(frac) {
			return 0, ErrInvalidAmount
		}
	}
	cents, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	cents *= 100
	// "5" means fifty cents, "05" means five.
	for i := 0; i < len(frac); i++ {
		scale := int64(10)
		if i == 1 {
			scale = 1
		}
		cents += int64(frac[i]-'0') * scale
	}
	return sign * cents, nil
}

// FormatMinor renders cents as a decimal string with exactly two places.
func FormatMinor(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
