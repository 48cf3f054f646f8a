// Package seedfile reads a machine layout (catalog plus coin drawer) from
// YAML:
//
//	products:
//	  - code: 101
//	    name: Cola
//	    price: 1.50
//	    stock: 10
//	coins:
//	  2.00: 20
//	  0.50: 20
//
// Amounts keep their literal text, so "1.5", "1.50" and "1.50€" all parse.
package seedfile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

var ErrInvalid = errors.New("invalid seed file")

type file struct {
	Products []productEntry  `yaml:"products"`
	Coins    map[string]int64 `yaml:"coins"`
}

type productEntry struct {
	Code  string `yaml:"code"`
	Name  string `yaml:"name"`
	Price string `yaml:"price"`
	Stock int64  `yaml:"stock"`
	Image string `yaml:"image"`
}

// Layout is a validated seed.
type Layout struct {
	Products []products.Product
	Drawer   money.CoinSet
}

func Load(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read seed file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (Layout, error) {
	var f file

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	out := Layout{Drawer: money.CoinSet{}}
	seen := make(map[products.Code]bool, len(f.Products))

	for i, e := range f.Products {
		p, err := e.product()
		if err != nil {
			return Layout{}, fmt.Errorf("%w: product #%d: %w", ErrInvalid, i+1, err)
		}

		if seen[p.Code] {
			return Layout{}, fmt.Errorf("%w: product code %s listed twice", ErrInvalid, p.Code)
		}

		seen[p.Code] = true
		out.Products = append(out.Products, p)
	}

	for raw, n := range f.Coins {
		d, err := money.ParseDenomination(raw)
		if err != nil {
			return Layout{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		if n < 0 {
			return Layout{}, fmt.Errorf("%w: %d coins of %s", ErrInvalid, n, d)
		}

		if _, dup := out.Drawer[d]; dup {
			return Layout{}, fmt.Errorf("%w: coin %s listed twice", ErrInvalid, d)
		}

		out.Drawer[d] = n
	}

	return out, nil
}

func (e productEntry) product() (products.Product, error) {
	code, err := products.ParseCode(e.Code)
	if err != nil {
		return products.Product{}, err
	}

	if e.Name == "" {
		return products.Product{}, fmt.Errorf("code %s: name required", code)
	}

	price, err := money.Parse(e.Price)
	if err != nil {
		return products.Product{}, fmt.Errorf("code %s: %w", code, err)
	}

	if price.IsNegative() {
		return products.Product{}, fmt.Errorf("code %s: %w: %s", code, products.ErrInvalidPrice, price)
	}

	if e.Stock < 0 {
		return products.Product{}, fmt.Errorf("code %s: %w: stock %d", code, products.ErrInvalidQuantity, e.Stock)
	}

	return products.Product{
		Code:  code,
		Name:  e.Name,
		Price: price,
		Stock: e.Stock,
		Image: e.Image,
	}, nil
}
