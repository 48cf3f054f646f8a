package coins

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
)

// Decrease removes n coins of d. It fails with ErrInsufficientCoins, leaving
// the row untouched, when fewer than n are held at the time of the update.
func (r *coinsRepo) Decrease(tx *sql.Tx, d money.Denomination, n int64) error {
	err := checkDelta(d, n)
	if err != nil {
		return err
	}

	res, err := tx.Exec(`
		UPDATE coins
		SET count = count - $2
		WHERE denomination_minor = $1
		  AND count >= $2
	`, int64(d), n)
	if err != nil {
		return fmt.Errorf("decrease coins: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %d of %s", coins.ErrInsufficientCoins, n, d)
	}

	return nil
}
