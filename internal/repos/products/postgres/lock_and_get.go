package products

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

// LockAndGet reads a product and holds its row lock until tx ends.
func (r *productsRepo) LockAndGet(tx *sql.Tx, code products.Code) (products.Product, error) {
	p, err := scanProduct(tx.QueryRow(`
		SELECT code, name, price_minor, stock, image
		FROM products
		WHERE code = $1
		FOR UPDATE
	`, int64(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, fmt.Errorf("%w: %s", products.ErrProductNotFound, code)
		}

		return products.Product{}, fmt.Errorf("lock/get product: %w", err)
	}

	return p, nil
}
