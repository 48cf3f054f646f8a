package purchases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/vendingmachine/internal/infra/pgutils"
	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	"github.com/fastprodman/vendingmachine/internal/repos/purchases"
)

var _ purchases.Purchases = (*purchasesRepo)(nil)

type purchasesRepo struct{ db *sql.DB }

func New(db *sql.DB) *purchasesRepo {
	return &purchasesRepo{db: db}
}

func (r *purchasesRepo) Insert(tx *sql.Tx, rec purchases.Record) error {
	changeCoins, err := json.Marshal(nonNil(rec.ChangeCoins))
	if err != nil {
		return fmt.Errorf("encode change coins: %w", err)
	}

	deposited, err := json.Marshal(nonNil(rec.Deposited))
	if err != nil {
		return fmt.Errorf("encode deposited coins: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO purchases
			(purchase_id, product_code, price_minor, paid_minor, change_minor, change_coins, deposited_coins)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID.String(), int64(rec.Code), rec.Price.Minor(), rec.Paid.Minor(), rec.ChangeDue.Minor(),
		string(changeCoins), string(deposited))
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", purchases.ErrDuplicatePurchase, rec.ID)
		}

		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}

func (r *purchasesRepo) Get(ctx context.Context, id uuid.UUID) (purchases.Record, error) {
	var (
		rec                       purchases.Record
		rawID                     string
		code                      int64
		price, paid, change       int64
		changeCoins, depositedRaw []byte
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT purchase_id::text, product_code, price_minor, paid_minor, change_minor,
		       change_coins, deposited_coins, created_at
		FROM purchases
		WHERE purchase_id = $1
	`, id.String()).Scan(&rawID, &code, &price, &paid, &change, &changeCoins, &depositedRaw, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return purchases.Record{}, fmt.Errorf("%w: %s", purchases.ErrPurchaseNotFound, id)
		}

		return purchases.Record{}, fmt.Errorf("get purchase: %w", err)
	}

	rec.ID, err = uuid.Parse(rawID)
	if err != nil {
		return purchases.Record{}, fmt.Errorf("parse purchase id: %w", err)
	}

	rec.Code = products.Code(code)
	rec.Price = money.FromMinor(price)
	rec.Paid = money.FromMinor(paid)
	rec.ChangeDue = money.FromMinor(change)

	err = json.Unmarshal(changeCoins, &rec.ChangeCoins)
	if err != nil {
		return purchases.Record{}, fmt.Errorf("decode change coins: %w", err)
	}

	err = json.Unmarshal(depositedRaw, &rec.Deposited)
	if err != nil {
		return purchases.Record{}, fmt.Errorf("decode deposited coins: %w", err)
	}

	return rec, nil
}

func (r *purchasesRepo) Summary(ctx context.Context) (purchases.Summary, error) {
	var (
		s                          purchases.Summary
		revenue, changeGiven, paid int64
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(price_minor), 0)::BIGINT,
		       COALESCE(SUM(change_minor), 0)::BIGINT,
		       COALESCE(SUM(paid_minor), 0)::BIGINT
		FROM purchases
	`).Scan(&s.Count, &revenue, &changeGiven, &paid)
	if err != nil {
		return purchases.Summary{}, fmt.Errorf("summarize purchases: %w", err)
	}

	s.Revenue = money.FromMinor(revenue)
	s.ChangeGiven = money.FromMinor(changeGiven)
	s.Paid = money.FromMinor(paid)

	return s, nil
}

func nonNil(c money.CoinSet) money.CoinSet {
	if c == nil {
		return money.CoinSet{}
	}

	return c
}
