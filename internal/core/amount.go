// Package core provides the domain values shared by every backend.
//
// This file contains parsing of user-entered amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a signed decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Positive values are income, negative values are
// expenses. The result is rounded half-up to two decimal places.
//
// Examples:
//
//	ParseAmount("1000")    -> 1000, nil
//	ParseAmount("-200,50") -> -200.5, nil
//	ParseAmount("12.345")  -> 12.35, nil
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).InexactFloat64(), nil
}
