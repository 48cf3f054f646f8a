package vending

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fastprodman/vendingmachine/internal/money"
)

// MaxCodeLen is the number of keypad digits a product code may have.
const MaxCodeLen = 3

type State string

const (
	StateIdle           State = "idle"
	StateCodeEntry      State = "code_entry"
	StateAwaitingFunds  State = "awaiting_funds"
	StateReadyToConfirm State = "ready_to_confirm"
	StateSettling       State = "settling"
)

// PendingTransaction is one purchase attempt before it is settled: the code
// typed so far, the coins inserted and their running value. It is a value;
// every transition returns a new PendingTransaction and leaves the receiver
// untouched, so a rejected step never needs undoing.
//
// Inserted coins stay here until a purchase settles; they reach the coin
// inventory only then, and never if the attempt is cancelled.
type PendingTransaction struct {
	ID       uuid.UUID     `json:"id"`
	Code     string        `json:"code"`
	Balance  money.Money   `json:"balance"`
	Inserted money.CoinSet `json:"inserted"`
}

// NewPending starts an empty attempt with a fresh id. The id is journaled
// when the purchase settles, so retrying a confirm cannot settle it twice.
func NewPending() PendingTransaction {
	return PendingTransaction{
		ID:       uuid.New(),
		Inserted: money.CoinSet{},
	}
}

// State derives the keypad/coin-slot state. Settling is tracked by Machine.
func (p PendingTransaction) State() State {
	hasCode := p.Code != ""
	hasFunds := !p.Balance.IsZero()

	switch {
	case hasCode && hasFunds:
		return StateReadyToConfirm
	case hasFunds:
		return StateAwaitingFunds
	case hasCode:
		return StateCodeEntry
	default:
		return StateIdle
	}
}

// PressKey appends one keypad digit to the code.
func (p PendingTransaction) PressKey(key string) (PendingTransaction, error) {
	if len(key) != 1 || key[0] < '0' || key[0] > '9' {
		return p, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	if len(p.Code) >= MaxCodeLen {
		return p, fmt.Errorf("%w: %q already has %d digits", ErrCodeTooLong, p.Code, MaxCodeLen)
	}

	next := p.clone()
	next.Code += key

	return next, nil
}

// InsertCoin credits the balance and tallies the coin for deposit.
func (p PendingTransaction) InsertCoin(d money.Denomination) (PendingTransaction, error) {
	err := d.Check()
	if err != nil {
		return p, err
	}

	next := p.clone()
	next.Balance = next.Balance.Add(d.Value())

	if d <= money.Largest() {
		next.Inserted[d]++
	}

	return next, nil
}

// Refund is what Cancel hands back: the whole balance. Nothing is written to
// the coin inventory.
type Refund struct {
	PendingID uuid.UUID     `json:"pendingId"`
	Amount    money.Money   `json:"amount"`
	Coins     money.CoinSet `json:"coins"`
}

// Cancel abandons the attempt and reports the balance to return.
func (p PendingTransaction) Cancel() (Refund, PendingTransaction) {
	return Refund{
		PendingID: p.ID,
		Amount:    p.Balance,
		Coins:     p.Inserted.Clone(),
	}, NewPending()
}

func (p PendingTransaction) clone() PendingTransaction {
	p.Inserted = p.Inserted.Clone()
	return p
}
