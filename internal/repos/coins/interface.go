package coins

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fastprodman/vendingmachine/internal/money"
)

var (
	ErrInsufficientCoins = errors.New("insufficient coins")
	ErrInvalidQuantity   = errors.New("invalid coin quantity")
)

// Entry is one persisted row of the cash drawer. Denomination may be outside
// the accepted set if the row was written out of band.
type Entry struct {
	Denomination money.Denomination `json:"denomination"`
	Count        int64              `json:"count"`
}

// Coins is the coin inventory. Every mutation is a single conditional
// statement inside the caller's transaction; counts never go negative.
type Coins interface {
	List(ctx context.Context) ([]Entry, error)
	Count(ctx context.Context, d money.Denomination) (int64, error)
	Snapshot(tx *sql.Tx) (money.CoinSet, error)
	Increase(tx *sql.Tx, d money.Denomination, n int64) error
	Decrease(tx *sql.Tx, d money.Denomination, n int64) error
	SetCount(tx *sql.Tx, d money.Denomination, n int64) error
}
