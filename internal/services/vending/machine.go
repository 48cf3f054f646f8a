package vending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fastprodman/vendingmachine/internal/money"
)

// Settler settles a pending transaction; *Service is the production one.
// Settled returns the receipt of a purchase that already committed, or
// ErrPurchaseNotFound.
type Settler interface {
	Confirm(ctx context.Context, pending PendingTransaction) (Receipt, error)
	Settled(ctx context.Context, id uuid.UUID) (Receipt, error)
}

// Machine is one physical machine: a keypad, a coin slot and at most one
// pending transaction. Calls are serialized; while a purchase is settling,
// every other input fails with ErrSettling.
//
// A confirm that fails with ErrIO may still have committed. Until a later
// confirm or cancel resolves it against the journal, the pending value is
// frozen: keys and coins fail with ErrSettling.
type Machine struct {
	mu       sync.Mutex
	settler  Settler
	pending  PendingTransaction
	settling bool
	unacked  bool
}

func NewMachine(settler Settler) *Machine {
	return &Machine{
		settler: settler,
		pending: NewPending(),
	}
}

// Snapshot is the display state of a machine.
type Snapshot struct {
	State    State         `json:"state"`
	Code     string        `json:"code"`
	Balance  money.Money   `json:"balance"`
	Inserted money.CoinSet `json:"inserted"`
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snapshotLocked()
}

func (m *Machine) PressKey(key string) (Snapshot, error) {
	return m.step(func(p PendingTransaction) (PendingTransaction, error) {
		return p.PressKey(key)
	})
}

func (m *Machine) InsertCoin(d money.Denomination) (Snapshot, error) {
	return m.step(func(p PendingTransaction) (PendingTransaction, error) {
		return p.InsertCoin(d)
	})
}

// Cancel returns the balance and resets the machine to idle. If the pending
// transaction turns out to have settled already, nothing is refunded.
func (m *Machine) Cancel(ctx context.Context) (Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settling {
		return Refund{}, fmt.Errorf("cancel: %w", ErrSettling)
	}

	if m.unacked {
		receipt, found, err := m.lookupSettled(ctx, m.pending.ID)
		if err != nil {
			return Refund{}, fmt.Errorf("cancel: %w", err)
		}

		if found {
			slog.InfoContext(ctx, "cancel of settled purchase, nothing to refund",
				"purchase_id", receipt.PurchaseID, "code", receipt.Code)

			m.pending = NewPending()
			m.unacked = false

			return Refund{}, nil
		}
	}

	refund, next := m.pending.Cancel()
	m.pending = next
	m.unacked = false

	return refund, nil
}

// Confirm settles the pending transaction. On success the machine returns to
// idle; on any failure the code and balance are kept so the customer can add
// coins, retry or cancel.
//
// A retry of a transaction that committed on an earlier attempt is answered
// with the original receipt.
func (m *Machine) Confirm(ctx context.Context) (Receipt, error) {
	pending, unacked, err := m.beginSettling()
	if err != nil {
		return Receipt{}, err
	}

	var (
		receipt  Receipt
		outcome  error
		returned bool
	)

	defer func() {
		m.endSettling(returned, outcome)
	}()

	receipt, outcome = m.settle(ctx, pending, unacked)
	returned = true

	if outcome != nil {
		return Receipt{}, outcome
	}

	return receipt, nil
}

func (m *Machine) beginSettling() (PendingTransaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settling {
		return PendingTransaction{}, false, fmt.Errorf("confirm: %w", ErrSettling)
	}

	if m.pending.Code == "" {
		return PendingTransaction{}, false, fmt.Errorf("confirm: %w", ErrCodeRequired)
	}

	m.settling = true

	return m.pending, m.unacked, nil
}

// endSettling runs even if the settler panics; returned is false then and the
// pending value is left as it was.
func (m *Machine) endSettling(returned bool, outcome error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settling = false

	if !returned {
		return
	}

	if outcome == nil {
		m.pending = NewPending()
		m.unacked = false

		return
	}

	m.unacked = errors.Is(outcome, ErrIO)
}

func (m *Machine) settle(ctx context.Context, pending PendingTransaction, unacked bool) (Receipt, error) {
	if unacked {
		receipt, found, err := m.lookupSettled(ctx, pending.ID)
		if err != nil {
			return Receipt{}, fmt.Errorf("confirm: %w", err)
		}

		if found {
			return receipt, nil
		}
	}

	receipt, err := m.settler.Confirm(ctx, pending)
	if !errors.Is(err, ErrDuplicatePurchase) {
		return receipt, err
	}

	receipt, found, lookupErr := m.lookupSettled(ctx, pending.ID)
	switch {
	case lookupErr != nil:
		return Receipt{}, fmt.Errorf("%w; recover receipt: %w", err, lookupErr)
	case found:
		return receipt, nil
	default:
		return Receipt{}, err
	}
}

func (m *Machine) lookupSettled(ctx context.Context, id uuid.UUID) (Receipt, bool, error) {
	receipt, err := m.settler.Settled(ctx, id)
	if errors.Is(err, ErrPurchaseNotFound) {
		return Receipt{}, false, nil
	}

	if err != nil {
		return Receipt{}, false, err
	}

	slog.InfoContext(ctx, "settled purchase recovered from journal", "purchase_id", id)

	return receipt, true, nil
}

func (m *Machine) step(fn func(PendingTransaction) (PendingTransaction, error)) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settling {
		return m.snapshotLocked(), ErrSettling
	}

	if m.unacked {
		return m.snapshotLocked(), fmt.Errorf("%w: last confirm unresolved, confirm or cancel", ErrSettling)
	}

	next, err := fn(m.pending)
	if err != nil {
		return m.snapshotLocked(), err
	}

	m.pending = next

	return m.snapshotLocked(), nil
}

func (m *Machine) snapshotLocked() Snapshot {
	state := m.pending.State()
	if m.settling {
		state = StateSettling
	}

	return Snapshot{
		State:    state,
		Code:     m.pending.Code,
		Balance:  m.pending.Balance,
		Inserted: m.pending.Inserted.Clone(),
	}
}
