package coins

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
)

// SetCount overwrites the count for d. Used for refills and withdrawals.
func (r *coinsRepo) SetCount(tx *sql.Tx, d money.Denomination, n int64) error {
	err := checkDelta(d, n)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT INTO coins (denomination_minor, count)
		VALUES ($1, $2)
		ON CONFLICT (denomination_minor) DO UPDATE
		SET count = EXCLUDED.count
	`, int64(d), n)
	if err != nil {
		return fmt.Errorf("set coin count: %w", err)
	}

	return nil
}
