package money

import "maps"

// CoinSet maps a denomination to a number of coins. It is used for inventory
// snapshots, change breakdowns and the coins a customer inserted.
type CoinSet map[Denomination]int64

// CoinCount is one CoinSet entry.
type CoinCount struct {
	Denomination Denomination `json:"denomination"`
	Count        int64        `json:"count"`
}

// Count returns the number of coins held for d; absent entries count as zero.
func (c CoinSet) Count(d Denomination) int64 {
	return c[d]
}

// Total returns the value of all coins in the set.
func (c CoinSet) Total() Money {
	var total Money
	for d, n := range c {
		total += Money(int64(d) * n)
	}

	return total
}

// Clone returns an independent copy. Cloning a nil set yields an empty one.
func (c CoinSet) Clone() CoinSet {
	out := make(CoinSet, len(c))
	maps.Copy(out, c)

	return out
}

// With returns a copy of c holding n more coins of d.
func (c CoinSet) With(d Denomination, n int64) CoinSet {
	out := c.Clone()
	out[d] += n

	return out
}

// IsEmpty reports whether the set holds no coins.
func (c CoinSet) IsEmpty() bool {
	for _, n := range c {
		if n != 0 {
			return false
		}
	}

	return true
}

// Entries lists the non-zero counts of accepted denominations, largest first.
func (c CoinSet) Entries() []CoinCount {
	out := make([]CoinCount, 0, len(c))
	for _, d := range denominations {
		n := c[d]
		if n == 0 {
			continue
		}

		out = append(out, CoinCount{Denomination: d, Count: n})
	}

	return out
}
