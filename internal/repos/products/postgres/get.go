package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

func (r *productsRepo) Get(ctx context.Context, code products.Code) (products.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `
		SELECT code, name, price_minor, stock, image
		FROM products
		WHERE code = $1
	`, int64(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, fmt.Errorf("%w: %s", products.ErrProductNotFound, code)
		}

		return products.Product{}, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}
