package vending

import (
	"errors"
	"fmt"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	"github.com/fastprodman/vendingmachine/internal/repos/purchases"
)

// Failure kinds reported to callers. Storage-level sentinels are re-exported
// so adapters only need this package.
var (
	ErrProductNotFound     = products.ErrProductNotFound
	ErrOutOfStock          = products.ErrOutOfStock
	ErrInvalidPrice        = products.ErrInvalidPrice
	ErrInsufficientCoins   = coins.ErrInsufficientCoins
	ErrUnknownDenomination = money.ErrUnknownDenomination
	ErrNegativeResult      = money.ErrNegativeResult
	ErrDuplicatePurchase   = purchases.ErrDuplicatePurchase
	ErrPurchaseNotFound    = purchases.ErrPurchaseNotFound

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrChangeUnavailable   = errors.New("change unavailable")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrCodeRequired        = errors.New("product code required")
	ErrCodeTooLong         = errors.New("product code too long")
	ErrInvalidKey          = errors.New("invalid key")
	ErrSettling            = errors.New("purchase settling")

	// ErrIO marks a failed or timed out catalog/inventory call. The pending
	// transaction is kept; the caller may retry the whole operation.
	ErrIO = errors.New("storage unavailable")
)

var domainErrors = []error{
	ErrProductNotFound,
	ErrOutOfStock,
	ErrInvalidPrice,
	ErrInsufficientCoins,
	ErrUnknownDenomination,
	ErrNegativeResult,
	ErrDuplicatePurchase,
	ErrPurchaseNotFound,
	ErrInsufficientBalance,
	ErrChangeUnavailable,
	ErrInvalidQuantity,
	ErrCodeRequired,
	ErrCodeTooLong,
	ErrInvalidKey,
	products.ErrInvalidQuantity,
	coins.ErrInvalidQuantity,
}

// classify tags any error that is not a domain rejection as ErrIO.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return fmt.Errorf("%s: %w: %w", op, ErrIO, err)
}
