// Package change computes the coins to hand back for a purchase.
package change

import (
	"errors"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
)

// ErrInfeasible means the available coins cannot cover the amount with the
// greedy strategy.
var ErrInfeasible = errors.New("change infeasible")

// Compute returns a breakdown of amountDue taken greedily from available,
// largest denomination first, without backtracking. The breakdown always
// totals exactly amountDue; when that is not reachable ErrInfeasible is
// returned instead of a partial breakdown. available is never modified.
//
// Greedy can fail where an exact combination exists (e.g. 0.60 from one 0.50
// and three 0.20); such amounts are reported as infeasible.
func Compute(amountDue money.Money, available money.CoinSet) (money.CoinSet, error) {
	if amountDue.IsNegative() {
		return nil, fmt.Errorf("compute change for %s: %w", amountDue, money.ErrNegativeResult)
	}

	breakdown := make(money.CoinSet)
	remaining := amountDue.Minor()

	for _, d := range money.Denominations() {
		if remaining == 0 {
			break
		}

		have := available.Count(d)
		if have <= 0 {
			continue
		}

		take := min(remaining/int64(d), have)
		if take == 0 {
			continue
		}

		breakdown[d] = take
		remaining -= take * int64(d)
	}

	if remaining > 0 {
		return nil, fmt.Errorf("%s short by %s: %w", amountDue, money.Money(remaining), ErrInfeasible)
	}

	return breakdown, nil
}
