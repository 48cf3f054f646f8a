package coins

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
)

// Increase adds n coins of d, creating the row when absent.
func (r *coinsRepo) Increase(tx *sql.Tx, d money.Denomination, n int64) error {
	err := checkDelta(d, n)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO coins (denomination_minor, count)
		VALUES ($1, $2)
		ON CONFLICT (denomination_minor) DO UPDATE
		SET count = coins.count + EXCLUDED.count
	`, int64(d), n)
	if err != nil {
		return fmt.Errorf("increase coins: %w", err)
	}

	return nil
}

func checkDelta(d money.Denomination, n int64) error {
	err := d.Check()
	if err != nil {
		return err
	}

	if n < 0 {
		return fmt.Errorf("%w: %d coins of %s", coins.ErrInvalidQuantity, n, d)
	}

	return nil
}
