package products

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

func (r *productsRepo) SetStock(tx *sql.Tx, code products.Code, qty int64) error {
	if qty < 0 {
		return fmt.Errorf("%w: stock %d", products.ErrInvalidQuantity, qty)
	}

	res, err := tx.Exec(`
		UPDATE products
		SET stock = $2
		WHERE code = $1
	`, int64(code), qty)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}

	return expectOneRow(res, code)
}

func expectOneRow(res sql.Result, code products.Code) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", products.ErrProductNotFound, code)
	}

	return nil
}
