// Package core holds the ledger domain: accounts, transactions, money
// and time handling. It performs no I/O.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal amount string to cents.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Anything
// past the second fractional digit is rounded half-up. Signed, zero and
// malformed inputs are rejected: transaction amounts are always positive,
// direction lives in the transaction type.
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Overflow guard for the cents conversion below.
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	cents := iv*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// String renders the amount with exactly two decimal places, e.g. "250.00".
// Negative balances render with a leading minus.
func (m Money) String() string {
	// Negate in uint64 so math.MinInt64 cannot overflow.
	cents := uint64(m.Cents)
	sign := ""
	if m.Cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Float returns the amount as a float64 for display purposes only.
// Calculations stay in cents to avoid floating-point drift.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}
