package vending

import (
	"errors"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	"github.com/fastprodman/vendingmachine/internal/services/change"
)

// Settlement is the full set of mutations a confirmed purchase will apply.
// It is computed before anything is written.
type Settlement struct {
	Product   products.Product
	Paid      money.Money
	ChangeDue money.Money
	Change    money.CoinSet // leaves the drawer
	Deposit   money.CoinSet // enters the drawer
}

// Plan runs the admission checks for buying product with pending against a
// drawer snapshot, in order: stock, balance, change. Any failure is returned
// before a Settlement exists, so a rejected purchase cannot mutate anything.
//
// Change is computed from the drawer as it was before the customer's coins
// are credited; a customer is never paid back with their own coins.
func Plan(pending PendingTransaction, product products.Product, drawer money.CoinSet) (Settlement, error) {
	if product.Stock <= 0 {
		return Settlement{}, fmt.Errorf("%w: %s", ErrOutOfStock, product.Code)
	}

	changeDue, err := pending.Balance.Sub(product.Price)
	if err != nil {
		return Settlement{}, fmt.Errorf("%w: price %s, balance %s", ErrInsufficientBalance, product.Price, pending.Balance)
	}

	breakdown := money.CoinSet{}
	if changeDue > 0 {
		breakdown, err = change.Compute(changeDue, drawer)
		if err != nil {
			if errors.Is(err, change.ErrInfeasible) {
				return Settlement{}, fmt.Errorf("%w: %w", ErrChangeUnavailable, err)
			}

			return Settlement{}, err
		}
	}

	return Settlement{
		Product:   product,
		Paid:      pending.Balance,
		ChangeDue: changeDue,
		Change:    breakdown,
		Deposit:   pending.Inserted.Clone(),
	}, nil
}
