package products

import (
	"context"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

// List returns the catalog ordered by code.
func (r *productsRepo) List(ctx context.Context) ([]products.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT code, name, price_minor, stock, image
		FROM products
		ORDER BY code
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []products.Product

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return out, nil
}
