package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fastprodman/vendingmachine/internal/money"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOutOfStock      = errors.New("out of stock")
	ErrInvalidPrice    = errors.New("invalid price")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Code identifies a product slot. Codes are typed on the keypad as text and
// stored as numbers; ParseCode is the only conversion between the two.
type Code uint32

// ParseCode normalizes keypad or admin input ("101", " 7", "007") to a Code.
func ParseCode(s string) (Code, error) {
	s = strings.TrimSpace(s)

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: code %q", ErrProductNotFound, s)
	}

	return Code(n), nil
}

func (c Code) String() string {
	return strconv.FormatUint(uint64(c), 10)
}

type Product struct {
	Code  Code        `json:"code"`
	Name  string      `json:"name"`
	Price money.Money `json:"price"`
	Stock int64       `json:"stock"`
	Image string      `json:"image,omitempty"`
}

// Products is the catalog. Methods taking *sql.Tx run inside the caller's
// transaction; stock and price changes are single conditional statements.
type Products interface {
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, code Code) (Product, error)
	LockAndGet(tx *sql.Tx, code Code) (Product, error)
	DecreaseStock(tx *sql.Tx, code Code, qty int64) error
	SetStock(tx *sql.Tx, code Code, qty int64) error
	SetPrice(tx *sql.Tx, code Code, price money.Money) error
	Upsert(tx *sql.Tx, p Product) error
}
