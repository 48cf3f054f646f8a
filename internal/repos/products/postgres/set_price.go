package products

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

func (r *productsRepo) SetPrice(tx *sql.Tx, code products.Code, price money.Money) error {
	if price.IsNegative() {
		return fmt.Errorf("%w: %s", products.ErrInvalidPrice, price)
	}

	res, err := tx.Exec(`
		UPDATE products
		SET price_minor = $2
		WHERE code = $1
	`, int64(code), price.Minor())
	if err != nil {
		return fmt.Errorf("set price: %w", err)
	}

	return expectOneRow(res, code)
}
