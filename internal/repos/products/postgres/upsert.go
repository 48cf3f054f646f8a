package products

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

// Upsert inserts a product or replaces every column of an existing one.
func (r *productsRepo) Upsert(tx *sql.Tx, p products.Product) error {
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: %s", products.ErrInvalidPrice, p.Price)
	}

	if p.Stock < 0 {
		return fmt.Errorf("%w: stock %d", products.ErrInvalidQuantity, p.Stock)
	}

	_, err := tx.Exec(`
		INSERT INTO products (code, name, price_minor, stock, image)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE
		SET name = EXCLUDED.name,
		    price_minor = EXCLUDED.price_minor,
		    stock = EXCLUDED.stock,
		    image = EXCLUDED.image
	`, int64(p.Code), p.Name, p.Price.Minor(), p.Stock, p.Image)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}

	return nil
}
