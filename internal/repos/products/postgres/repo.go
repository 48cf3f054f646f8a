package products

import (
	"database/sql"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

var _ products.Products = (*productsRepo)(nil)

type productsRepo struct{ db *sql.DB }

func New(db *sql.DB) *productsRepo {
	return &productsRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (products.Product, error) {
	var (
		p     products.Product
		code  int64
		price int64
	)

	err := row.Scan(&code, &p.Name, &price, &p.Stock, &p.Image)
	if err != nil {
		return products.Product{}, err
	}

	p.Code = products.Code(code)
	p.Price = money.FromMinor(price)

	return p, nil
}
