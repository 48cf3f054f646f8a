// Package money holds exact monetary amounts in integer minor units (cents),
// the fixed coin denominations accepted by the machine and coin tallies.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeResult = errors.New("negative result")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// Money is an amount in minor units (cents).
type Money int64

// FromMinor returns the amount for n minor units.
func FromMinor(n int64) Money {
	return Money(n)
}

func (m Money) Minor() int64 { return int64(m) }

func (m Money) IsZero() bool { return m == 0 }

func (m Money) IsNegative() bool { return m < 0 }

func (m Money) Add(o Money) Money {
	return m + o
}

// Sub returns m - o, failing with ErrNegativeResult when the result would be
// below zero.
func (m Money) Sub(o Money) (Money, error) {
	if o > m {
		return 0, fmt.Errorf("%s - %s: %w", m, o, ErrNegativeResult)
	}

	return m - o, nil
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m < o:
		return -1
	case m > o:
		return 1
	default:
		return 0
	}
}

// String renders the amount in major units with two decimals ("1.50").
func (m Money) String() string {
	return decimal.New(int64(m), -2).StringFixed(2)
}

// Display renders the amount for the customer, e.g. "1.50€".
func (m Money) Display(suffix string) string {
	return m.String() + suffix
}

// MarshalText keeps amounts in major-unit notation on the wire.
func (m Money) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// Parse converts a major-unit decimal string with up to two fractional digits
// ("2", "0.5", "1.50") into minor units. A trailing currency suffix such as
// "€" is ignored. Negative values are accepted; callers validate sign.
func Parse(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSpace(strings.TrimRight(raw, "€$£"))
	if raw == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("%w: %q has more than 2 decimals", ErrInvalidAmount, s)
	}

	minor := d.Shift(2)
	if !minor.Equal(decimal.NewFromInt(minor.IntPart())) {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}

	return Money(minor.IntPart()), nil
}

// MustParse is Parse for constants and tests.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}

	return m
}
