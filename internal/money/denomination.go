package money

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnknownDenomination = errors.New("unknown denomination")

// Denomination is the face value of one coin, in minor units.
type Denomination int64

const (
	Coin200 Denomination = 200
	Coin100 Denomination = 100
	Coin50  Denomination = 50
	Coin20  Denomination = 20
	Coin10  Denomination = 10
	Coin5   Denomination = 5
)

// denominations is ordered by descending value.
var denominations = []Denomination{Coin200, Coin100, Coin50, Coin20, Coin10, Coin5}

// Denominations returns the accepted coins, largest first.
func Denominations() []Denomination {
	return slices.Clone(denominations)
}

// Largest returns the highest accepted coin.
func Largest() Denomination {
	return denominations[0]
}

func (d Denomination) Valid() bool {
	return slices.Contains(denominations, d)
}

func (d Denomination) Value() Money {
	return Money(d)
}

func (d Denomination) String() string {
	return Money(d).String()
}

// Check returns ErrUnknownDenomination when d is not an accepted coin.
func (d Denomination) Check() error {
	if !d.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownDenomination, Money(d))
	}

	return nil
}

// ParseDenomination reads a major-unit coin value ("0.50", "2") and checks it
// against the accepted set.
func ParseDenomination(s string) (Denomination, error) {
	m, err := Parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDenomination, s)
	}

	d := Denomination(m)

	err = d.Check()
	if err != nil {
		return 0, err
	}

	return d, nil
}

// MarshalText lets denominations key JSON objects as "0.50".
func (d Denomination) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Denomination) UnmarshalText(b []byte) error {
	v, err := ParseDenomination(string(b))
	if err != nil {
		return err
	}

	*d = v

	return nil
}
