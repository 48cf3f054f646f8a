package products

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

// DecreaseStock takes qty units out of stock. The update only applies while
// enough stock remains, so it never drives stock negative.
func (r *productsRepo) DecreaseStock(tx *sql.Tx, code products.Code, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: decrease by %d", products.ErrInvalidQuantity, qty)
	}

	res, err := tx.Exec(`
		UPDATE products
		SET stock = stock - $2
		WHERE code = $1
		  AND stock >= $2
	`, int64(code), qty)
	if err != nil {
		return fmt.Errorf("decrease stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s", products.ErrOutOfStock, code)
	}

	return nil
}
