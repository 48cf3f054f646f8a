package vending

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

// Admin operations are out-of-band servicing: they overwrite stock, prices and
// coin counts directly and skip the purchase admission checks.

// Restock sets the product's stock to the configured replenishment quantity.
// Repeating it has no further effect.
func (s *Service) Restock(ctx context.Context, code products.Code) (products.Product, error) {
	return s.SetStock(ctx, code, s.cfg.RestockQty)
}

// SetStock overwrites the product's stock.
func (s *Service) SetStock(ctx context.Context, code products.Code, qty int64) (products.Product, error) {
	if qty < 0 {
		return products.Product{}, fmt.Errorf("set stock: %w: %d", ErrInvalidQuantity, qty)
	}

	var updated products.Product

	err := s.withTx(ctx, "set stock", func(tx *sql.Tx) error {
		err := s.products.SetStock(tx, code, qty)
		if err != nil {
			return err
		}

		updated, err = s.products.LockAndGet(tx, code)

		return err
	})
	if err != nil {
		return products.Product{}, err
	}

	slog.InfoContext(ctx, "stock set", "code", code, "stock", qty)

	return updated, nil
}

// SetPrice validates and applies a new price. A negative price is rejected
// with ErrInvalidPrice before anything is written.
func (s *Service) SetPrice(ctx context.Context, code products.Code, price money.Money) (products.Product, error) {
	if price.IsNegative() {
		return products.Product{}, fmt.Errorf("set price: %w: %s", ErrInvalidPrice, price)
	}

	var updated products.Product

	err := s.withTx(ctx, "set price", func(tx *sql.Tx) error {
		err := s.products.SetPrice(tx, code, price)
		if err != nil {
			return err
		}

		updated, err = s.products.LockAndGet(tx, code)

		return err
	})
	if err != nil {
		return products.Product{}, err
	}

	slog.InfoContext(ctx, "price set", "code", code, "price", price)

	return updated, nil
}

// RefillCoin sets the count of d to the configured refill quantity.
func (s *Service) RefillCoin(ctx context.Context, d money.Denomination) error {
	return s.SetCoinCount(ctx, d, s.cfg.CoinRefillQty)
}

// WithdrawCoin empties the tube for d.
func (s *Service) WithdrawCoin(ctx context.Context, d money.Denomination) error {
	return s.SetCoinCount(ctx, d, 0)
}

// SetCoinCount overwrites the count for d.
func (s *Service) SetCoinCount(ctx context.Context, d money.Denomination, qty int64) error {
	err := d.Check()
	if err != nil {
		return fmt.Errorf("set coin count: %w", err)
	}

	if qty < 0 {
		return fmt.Errorf("set coin count: %w: %d", ErrInvalidQuantity, qty)
	}

	err = s.withTx(ctx, "set coin count", func(tx *sql.Tx) error {
		return s.coins.SetCount(tx, d, qty)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "coin count set", "denomination", d, "count", qty)

	return nil
}

// AdjustCoinCount adds delta coins of d, or removes -delta of them. Removing
// more than are held fails with ErrInsufficientCoins and changes nothing.
func (s *Service) AdjustCoinCount(ctx context.Context, d money.Denomination, delta int64) error {
	err := d.Check()
	if err != nil {
		return fmt.Errorf("adjust coin count: %w", err)
	}

	if delta == 0 {
		return nil
	}

	err = s.withTx(ctx, "adjust coin count", func(tx *sql.Tx) error {
		if delta > 0 {
			return s.coins.Increase(tx, d, delta)
		}

		return s.coins.Decrease(tx, d, -delta)
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "coin count adjusted", "denomination", d, "delta", delta)

	return nil
}

// Count returns the drawer count for one accepted denomination.
func (s *Service) Count(ctx context.Context, d money.Denomination) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	n, err := s.coins.Count(ctx, d)
	if err != nil {
		return 0, classify("coin count", err)
	}

	return n, nil
}

// FindProduct looks a product up by keypad or admin input.
func (s *Service) FindProduct(ctx context.Context, rawCode string) (products.Product, error) {
	code, err := products.ParseCode(rawCode)
	if err != nil {
		return products.Product{}, fmt.Errorf("find product: %w", err)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	p, err := s.products.Get(ctx, code)
	if err != nil {
		return products.Product{}, classify("find product", err)
	}

	return p, nil
}

// Seed upserts products and overwrites coin counts in one transaction.
func (s *Service) Seed(ctx context.Context, catalog []products.Product, drawer money.CoinSet) error {
	err := s.withTx(ctx, "seed", func(tx *sql.Tx) error {
		for _, p := range catalog {
			err := s.products.Upsert(tx, p)
			if err != nil {
				return fmt.Errorf("product %s: %w", p.Code, err)
			}
		}

		for d, n := range drawer {
			err := s.coins.SetCount(tx, d, n)
			if err != nil {
				return fmt.Errorf("coin %s: %w", d, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "seeded", "products", len(catalog), "coin_kinds", len(drawer))

	return nil
}
