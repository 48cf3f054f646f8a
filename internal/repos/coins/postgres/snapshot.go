package coins

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
)

// Snapshot copies the accepted denominations' counts as seen by tx. It takes
// no locks: Decrease re-checks every count when the change is applied.
func (r *coinsRepo) Snapshot(tx *sql.Tx) (money.CoinSet, error) {
	rows, err := tx.Query(`
		SELECT denomination_minor, count
		FROM coins
	`)
	if err != nil {
		return nil, fmt.Errorf("snapshot coins: %w", err)
	}
	defer rows.Close()

	out := make(money.CoinSet)

	for rows.Next() {
		var d, n int64

		err = rows.Scan(&d, &n)
		if err != nil {
			return nil, fmt.Errorf("scan coin: %w", err)
		}

		if !money.Denomination(d).Valid() {
			continue
		}

		out[money.Denomination(d)] = n
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate coins: %w", err)
	}

	return out, nil
}
