package vending

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fastprodman/vendingmachine/internal/config"
	"github.com/fastprodman/vendingmachine/internal/infra/pgutils"
	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
	pgcoins "github.com/fastprodman/vendingmachine/internal/repos/coins/postgres"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	pgproducts "github.com/fastprodman/vendingmachine/internal/repos/products/postgres"
	"github.com/fastprodman/vendingmachine/internal/repos/purchases"
	pgpurchases "github.com/fastprodman/vendingmachine/internal/repos/purchases/postgres"
)

// Service settles purchases and services the machine against the shared
// catalog and coin inventory.
type Service struct {
	db        *sql.DB
	products  products.Products
	coins     coins.Coins
	purchases purchases.Purchases
	cfg       config.VendingConfig
}

func New(dbx *sql.DB, cfg config.VendingConfig) *Service {
	return &Service{
		db:        dbx,
		products:  pgproducts.New(dbx),
		coins:     pgcoins.New(dbx),
		purchases: pgpurchases.New(dbx),
		cfg:       cfg,
	}
}

// Receipt reports a settled purchase.
type Receipt struct {
	PurchaseID uuid.UUID     `json:"purchaseId"`
	Code       products.Code `json:"code"`
	Name       string        `json:"name"`
	Price      money.Money   `json:"price"`
	Paid       money.Money   `json:"paid"`
	ChangeDue  money.Money   `json:"changeDue"`
	Change     money.CoinSet `json:"change"`
}

// Confirm settles pending in a single DB transaction:
//
// 1) Lock the product row (FOR UPDATE); missing -> ErrProductNotFound.
// 2) Snapshot the drawer and Plan: stock, balance, change.
// 3) Debit the change coins (conditional; a concurrent drain -> ErrInsufficientCoins).
// 4) Credit the inserted coins.
// 5) Take one unit of stock.
// 6) Journal the purchase (same id twice -> ErrDuplicatePurchase).
//
// Any failure rolls back everything; pending itself is never modified.
func (s *Service) Confirm(ctx context.Context, pending PendingTransaction) (Receipt, error) {
	if pending.Code == "" {
		return Receipt{}, fmt.Errorf("confirm purchase: %w", ErrCodeRequired)
	}

	code, err := products.ParseCode(pending.Code)
	if err != nil {
		return Receipt{}, fmt.Errorf("confirm purchase: %w", err)
	}

	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var settled Settlement

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		// 1) Lock product row
		product, err := s.products.LockAndGet(tx, code)
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		// 2) Admission checks against a drawer snapshot
		drawer, err := s.coins.Snapshot(tx)
		if err != nil {
			return fmt.Errorf("snapshot coins: %w", err)
		}

		settled, err = Plan(pending, product, drawer)
		if err != nil {
			return err
		}

		// 3) Coins leaving the machine
		for _, c := range settled.Change.Entries() {
			err = s.coins.Decrease(tx, c.Denomination, c.Count)
			if err != nil {
				return fmt.Errorf("debit change: %w", err)
			}
		}

		// 4) Coins the customer deposited
		for _, c := range settled.Deposit.Entries() {
			err = s.coins.Increase(tx, c.Denomination, c.Count)
			if err != nil {
				return fmt.Errorf("credit deposit: %w", err)
			}
		}

		// 5) Stock
		err = s.products.DecreaseStock(tx, code, 1)
		if err != nil {
			return fmt.Errorf("decrease stock: %w", err)
		}

		// 6) Journal
		err = s.purchases.Insert(tx, purchases.Record{
			ID:          pending.ID,
			Code:        code,
			Price:       product.Price,
			Paid:        settled.Paid,
			ChangeDue:   settled.ChangeDue,
			ChangeCoins: settled.Change,
			Deposited:   settled.Deposit,
		})
		if err != nil {
			return fmt.Errorf("journal purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "purchase rejected",
			"purchase_id", pending.ID, "code", pending.Code, "balance", pending.Balance, "error", err)

		return Receipt{}, classify("confirm purchase", err)
	}

	slog.InfoContext(ctx, "purchase settled",
		"purchase_id", pending.ID,
		"code", code,
		"price", settled.Product.Price,
		"paid", settled.Paid,
		"change_due", settled.ChangeDue,
	)

	return Receipt{
		PurchaseID: pending.ID,
		Code:       code,
		Name:       settled.Product.Name,
		Price:      settled.Product.Price,
		Paid:       settled.Paid,
		ChangeDue:  settled.ChangeDue,
		Change:     settled.Change,
	}, nil
}

// ListProducts returns the catalog sorted by code.
func (s *Service) ListProducts(ctx context.Context) ([]products.Product, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	list, err := s.products.List(ctx)
	if err != nil {
		return nil, classify("list products", err)
	}

	return list, nil
}

// ListCoins returns the drawer rows, largest denomination first.
func (s *Service) ListCoins(ctx context.Context) ([]coins.Entry, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	list, err := s.coins.List(ctx)
	if err != nil {
		return nil, classify("list coins", err)
	}

	return list, nil
}

// Purchase reads one journal entry.
func (s *Service) Purchase(ctx context.Context, id uuid.UUID) (purchases.Record, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rec, err := s.purchases.Get(ctx, id)
	if err != nil {
		return purchases.Record{}, classify("get purchase", err)
	}

	return rec, nil
}

// Settled rebuilds the receipt of a journaled purchase. Machine uses it when a
// confirm retry hits ErrDuplicatePurchase.
func (s *Service) Settled(ctx context.Context, id uuid.UUID) (Receipt, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rec, err := s.purchases.Get(ctx, id)
	if err != nil {
		return Receipt{}, classify("settled purchase", err)
	}

	product, err := s.products.Get(ctx, rec.Code)
	if err != nil {
		return Receipt{}, classify("settled purchase", err)
	}

	slog.InfoContext(ctx, "purchase receipt recovered", "purchase_id", id, "code", rec.Code)

	return Receipt{
		PurchaseID: rec.ID,
		Code:       rec.Code,
		Name:       product.Name,
		Price:      rec.Price,
		Paid:       rec.Paid,
		ChangeDue:  rec.ChangeDue,
		Change:     rec.ChangeCoins,
	}, nil
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}

// withTx runs fn in a transaction bounded by the operation timeout.
func (s *Service) withTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	return classify(op, pgutils.WithTx(ctx, s.db, fn))
}
