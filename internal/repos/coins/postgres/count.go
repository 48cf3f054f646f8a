package coins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
)

// Count returns the coins held for d; a missing row counts as zero.
func (r *coinsRepo) Count(ctx context.Context, d money.Denomination) (int64, error) {
	err := d.Check()
	if err != nil {
		return 0, err
	}

	var n int64

	err = r.db.QueryRowContext(ctx, `
		SELECT count
		FROM coins
		WHERE denomination_minor = $1
	`, int64(d)).Scan(&n)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("get coin count: %w", err)
	}

	return n, nil
}
