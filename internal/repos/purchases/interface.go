package purchases

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

var (
	ErrDuplicatePurchase = errors.New("duplicate purchase")
	ErrPurchaseNotFound  = errors.New("purchase not found")
)

// Record is the journal entry of one settled purchase.
type Record struct {
	ID          uuid.UUID     `json:"id"`
	Code        products.Code `json:"code"`
	Price       money.Money   `json:"price"`
	Paid        money.Money   `json:"paid"`
	ChangeDue   money.Money   `json:"changeDue"`
	ChangeCoins money.CoinSet `json:"changeCoins"`
	Deposited   money.CoinSet `json:"deposited"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Summary aggregates the journal.
type Summary struct {
	Count       int64       `json:"count"`
	Revenue     money.Money `json:"revenue"`
	ChangeGiven money.Money `json:"changeGiven"`
	Paid        money.Money `json:"paid"`
}

type Purchases interface {
	Insert(tx *sql.Tx, rec Record) error
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	Summary(ctx context.Context) (Summary, error)
}
