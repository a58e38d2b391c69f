// Package core provides money parsing and handling utilities.
//
// Amounts are kept as exact decimals end to end. They only become float64
// when a summary is produced for display.
package core

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits stored for money columns.
const AmountScale = 2

// ParseAmount converts a decimal string to an exact amount. The value is
// stored as received, never rounded.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative
// values and malformed input return ErrInvalidAmount. Digits beyond
// AmountScale return ErrAmountScale unless they are trailing zeros. Zero is
// accepted; the validator decides whether a given field may be zero.
//
// Examples:
//
//	ParseAmount("1000")   -> 1000
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.340") -> 12.34
//	ParseAmount("12.345") -> ErrAmountScale
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return decimal.Zero, ErrAmountScale
	}
	return d, nil
}

// ToFloat converts an exact amount into the float representation used by summaries.
func ToFloat(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// AmountText is a money amount as submitted by a client. Both JSON strings
// ("1000.50") and JSON numbers (1000.5) are accepted.
type AmountText string

// UnmarshalJSON keeps the raw text of numbers so no precision is lost.
func (a *AmountText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountText(s)
		return nil
	}
	*a = AmountText(b)
	return nil
}

// Decimal parses the submitted text.
func (a AmountText) Decimal() (decimal.Decimal, error) {
	return ParseAmount(string(a))
}
