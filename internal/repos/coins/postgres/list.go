package coins

import (
	"context"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
)

// List returns every drawer row, largest denomination first.
func (r *coinsRepo) List(ctx context.Context) ([]coins.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT denomination_minor, count
		FROM coins
		ORDER BY denomination_minor DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list coins: %w", err)
	}
	defer rows.Close()

	var out []coins.Entry

	for rows.Next() {
		var d, n int64

		err = rows.Scan(&d, &n)
		if err != nil {
			return nil, fmt.Errorf("scan coin: %w", err)
		}

		out = append(out, coins.Entry{Denomination: money.Denomination(d), Count: n})
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate coins: %w", err)
	}

	return out, nil
}
