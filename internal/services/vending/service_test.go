package vending

import (
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/vendingmachine/internal/config"
	"github.com/fastprodman/vendingmachine/internal/infra/pgtestutil"
	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

func testConfig() config.VendingConfig {
	return config.VendingConfig{
		OpTimeout:      5 * time.Second,
		RestockQty:     20,
		CoinRefillQty:  20,
		CurrencySuffix: "€",
	}
}

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)
	t.Cleanup(cleanup)

	pgtestutil.SeedProduct(t, db, 101, "Cola", 150, 5)
	pgtestutil.SeedProduct(t, db, 102, "Water", 100, 1)
	pgtestutil.SeedProduct(t, db, 103, "Chips", 120, 0)
	pgtestutil.SeedCoins(t, db, map[int64]int64{200: 20, 100: 20, 50: 20, 20: 20, 10: 20, 5: 20})

	return New(db, testConfig()), db
}

func drawer(t *testing.T, s *Service) money.CoinSet {
	t.Helper()

	entries, err := s.ListCoins(t.Context())
	require.NoError(t, err)

	out := money.CoinSet{}
	for _, e := range entries {
		out[e.Denomination] = e.Count
	}

	return out
}

func stock(t *testing.T, s *Service, code string) int64 {
	t.Helper()

	p, err := s.FindProduct(t.Context(), code)
	require.NoError(t, err)

	return p.Stock
}

func TestService_ConfirmSettlesPurchase(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	before := drawer(t, s)

	pending := pendingWith(t, "101", money.Coin200)

	receipt, err := s.Confirm(t.Context(), pending)
	require.NoError(t, err)

	assert.Equal(t, pending.ID, receipt.PurchaseID)
	assert.Equal(t, products.Code(101), receipt.Code)
	assert.Equal(t, "Cola", receipt.Name)
	assert.Equal(t, money.Money(50), receipt.ChangeDue)
	assert.Equal(t, money.CoinSet{money.Coin50: 1}, receipt.Change)

	after := drawer(t, s)
	assert.Equal(t, before[money.Coin200]+1, after[money.Coin200])
	assert.Equal(t, before[money.Coin50]-1, after[money.Coin50])
	assert.Equal(t, before.Total().Add(receipt.Paid)-receipt.ChangeDue, after.Total())

	assert.Equal(t, int64(4), stock(t, s, "101"))

	rec, err := s.Purchase(t.Context(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, money.Money(200), rec.Paid)
	assert.Equal(t, money.CoinSet{money.Coin200: 1}, rec.Deposited)
}

func TestService_ConfirmRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pending func(t *testing.T) PendingTransaction
		prepare func(t *testing.T, db *sql.DB)
		wantErr error
	}{
		{
			name:    "unknown_product",
			pending: func(t *testing.T) PendingTransaction { return pendingWith(t, "999", money.Coin200) },
			wantErr: ErrProductNotFound,
		},
		{
			name:    "out_of_stock",
			pending: func(t *testing.T) PendingTransaction { return pendingWith(t, "103", money.Coin200) },
			wantErr: ErrOutOfStock,
		},
		{
			name:    "insufficient_balance",
			pending: func(t *testing.T) PendingTransaction { return pendingWith(t, "101", money.Coin100) },
			wantErr: ErrInsufficientBalance,
		},
		{
			name:    "no_code",
			pending: func(t *testing.T) PendingTransaction { return pendingWith(t, "", money.Coin200) },
			wantErr: ErrCodeRequired,
		},
		{
			name:    "change_unavailable",
			pending: func(t *testing.T) PendingTransaction { return pendingWith(t, "101", money.Coin200) },
			prepare: func(t *testing.T, db *sql.DB) {
				pgtestutil.SeedCoins(t, db, map[int64]int64{200: 3, 100: 0, 50: 0, 20: 2, 10: 0, 5: 0})
			},
			wantErr: ErrChangeUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, db := newTestService(t)
			if tt.prepare != nil {
				tt.prepare(t, db)
			}

			coinsBefore := drawer(t, s)
			catalogBefore, err := s.ListProducts(t.Context())
			require.NoError(t, err)

			_, err = s.Confirm(t.Context(), tt.pending(t))
			require.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, ErrIO)

			assert.Equal(t, coinsBefore, drawer(t, s))

			catalogAfter, err := s.ListProducts(t.Context())
			require.NoError(t, err)
			assert.Equal(t, catalogBefore, catalogAfter)

			rep, err := s.Reconcile(t.Context())
			require.NoError(t, err)
			assert.Zero(t, rep.Purchases.Count)
		})
	}
}

func TestService_ConfirmTwiceIsRejected(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	pending := pendingWith(t, "101", money.Coin100, money.Coin50)

	_, err := s.Confirm(t.Context(), pending)
	require.NoError(t, err)

	coinsAfterFirst := drawer(t, s)

	_, err = s.Confirm(t.Context(), pending)
	require.ErrorIs(t, err, ErrDuplicatePurchase)

	assert.Equal(t, int64(4), stock(t, s, "101"))
	assert.Equal(t, coinsAfterFirst, drawer(t, s))
}

func TestService_ConcurrentLastUnit(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			p := NewPending()
			p, _ = p.PressKey("1")
			p, _ = p.PressKey("0")
			p, _ = p.PressKey("2")
			p, _ = p.InsertCoin(money.Coin100)

			_, err := s.Confirm(t.Context(), p)

			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var ok, outOfStock int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrOutOfStock):
			outOfStock++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, outOfStock)
	assert.Equal(t, int64(0), stock(t, s, "102"))
}

// waitForLockWaiters blocks until n sessions of the test database are
// waiting on a row lock.
func waitForLockWaiters(t *testing.T, db *sql.DB, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		var waiting int

		err := db.QueryRowContext(t.Context(), `
			SELECT count(*)
			FROM pg_stat_activity
			WHERE datname = current_database()
			  AND wait_event_type = 'Lock'
		`).Scan(&waiting)

		return err == nil && waiting >= n
	}, 10*time.Second, 20*time.Millisecond)
}

func TestService_ChangeCoinDrainedAfterSnapshot(t *testing.T) {
	t.Parallel()

	s, db := newTestService(t)

	pgtestutil.SeedProduct(t, db, 102, "Water", 150, 1)
	pgtestutil.SeedCoins(t, db, map[int64]int64{200: 0, 100: 0, 50: 1, 20: 0, 10: 0, 5: 0})

	// Hold the 0.50 row so both purchases plan against the same snapshot and
	// then queue on the conditional debit.
	gate, err := db.BeginTx(t.Context(), nil)
	require.NoError(t, err)

	var held int64
	require.NoError(t, gate.QueryRowContext(t.Context(),
		`SELECT count FROM coins WHERE denomination_minor = 50 FOR UPDATE`).Scan(&held))
	require.Equal(t, int64(1), held)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[string]error{}
	)

	pendings := map[string]PendingTransaction{
		"101": pendingWith(t, "101", money.Coin200),
		"102": pendingWith(t, "102", money.Coin200),
	}

	for code, p := range pendings {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := s.Confirm(t.Context(), p)

			mu.Lock()
			results[code] = err
			mu.Unlock()
		}()
	}

	waitForLockWaiters(t, db, 2)
	require.NoError(t, gate.Rollback())
	wg.Wait()

	var winner, loser string
	for code, err := range results {
		switch {
		case err == nil:
			winner = code
		case errors.Is(err, ErrInsufficientCoins):
			loser = code
			assert.NotErrorIs(t, err, ErrIO)
			assert.NotErrorIs(t, err, ErrChangeUnavailable)
		default:
			t.Errorf("%s: unexpected error: %v", code, err)
		}
	}

	require.NotEmpty(t, winner, "one purchase must settle")
	require.NotEmpty(t, loser, "one purchase must fail on the drained coin")

	got := drawer(t, s)
	assert.Equal(t, int64(0), got[money.Coin50])
	assert.Equal(t, int64(1), got[money.Coin200], "only the winner's deposit is credited")

	wantStock := map[string]int64{"101": 5, "102": 1}
	assert.Equal(t, wantStock[winner]-1, stock(t, s, winner))
	assert.Equal(t, wantStock[loser], stock(t, s, loser), "loser's stock is rolled back")

	rep, err := s.Reconcile(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(1), rep.Purchases.Count)
	assert.True(t, rep.Consistent())
}

func TestService_ClosedDatabaseIsIO(t *testing.T) {
	t.Parallel()

	s, db := newTestService(t)
	require.NoError(t, db.Close())

	_, err := s.Confirm(t.Context(), pendingWith(t, "101", money.Coin200))
	require.ErrorIs(t, err, ErrIO)

	_, err = s.ListProducts(t.Context())
	require.ErrorIs(t, err, ErrIO)
}

func TestService_AdminOperations(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	ctx := t.Context()

	p, err := s.Restock(ctx, 103)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.Stock)

	p, err = s.Restock(ctx, 103)
	require.NoError(t, err)
	assert.Equal(t, int64(20), p.Stock)

	_, err = s.Restock(ctx, 999)
	require.ErrorIs(t, err, ErrProductNotFound)

	p, err = s.SetPrice(ctx, 101, 175)
	require.NoError(t, err)
	assert.Equal(t, money.Money(175), p.Price)

	_, err = s.SetPrice(ctx, 101, -5)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = s.SetStock(ctx, 101, -1)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	require.NoError(t, s.WithdrawCoin(ctx, money.Coin50))
	n, err := s.Count(ctx, money.Coin50)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.RefillCoin(ctx, money.Coin50))
	n, err = s.Count(ctx, money.Coin50)
	require.NoError(t, err)
	assert.Equal(t, int64(20), n)

	require.NoError(t, s.SetCoinCount(ctx, money.Coin5, 3))
	require.NoError(t, s.AdjustCoinCount(ctx, money.Coin5, 2))
	err = s.AdjustCoinCount(ctx, money.Coin5, -6)
	require.ErrorIs(t, err, ErrInsufficientCoins)

	n, err = s.Count(ctx, money.Coin5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	err = s.SetCoinCount(ctx, money.Denomination(3), 1)
	require.ErrorIs(t, err, ErrUnknownDenomination)

	found, err := s.FindProduct(ctx, "0101")
	require.NoError(t, err)
	assert.Equal(t, "Cola", found.Name)
}

func TestService_Reconcile(t *testing.T) {
	t.Parallel()

	s, db := newTestService(t)

	rep, err := s.Reconcile(t.Context())
	require.NoError(t, err)
	assert.True(t, rep.Consistent())
	assert.Equal(t, 3, rep.Products)
	assert.Equal(t, []products.Code{103}, rep.OutOfStock)
	assert.Equal(t, money.Money(20*(200+100+50+20+10+5)), rep.DrawerValue)

	_, err = db.Exec(`DELETE FROM coins WHERE denomination_minor = 10`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO coins (denomination_minor, count) VALUES (1, 4)`)
	require.NoError(t, err)

	rep, err = s.Reconcile(t.Context())
	require.NoError(t, err)
	assert.False(t, rep.Consistent())
	assert.Equal(t, []money.Denomination{money.Coin10}, rep.MissingDenominations)
	assert.Equal(t, []int64{1}, rep.UnknownDenominations)
}

func TestService_Seed(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)

	err := s.Seed(t.Context(),
		[]products.Product{{Code: 301, Name: "Juice", Price: 220, Stock: 7}},
		money.CoinSet{money.Coin200: 0, money.Coin10: 40},
	)
	require.NoError(t, err)

	p, err := s.FindProduct(t.Context(), "301")
	require.NoError(t, err)
	assert.Equal(t, money.Money(220), p.Price)

	d := drawer(t, s)
	assert.Zero(t, d[money.Coin200])
	assert.Equal(t, int64(40), d[money.Coin10])

	err = s.Seed(t.Context(), []products.Product{{Code: 302, Name: "Bad", Price: -1}}, nil)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = s.FindProduct(t.Context(), "302")
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_SettledRebuildsReceipt(t *testing.T) {
	t.Parallel()

	s, _ := newTestService(t)
	pending := pendingWith(t, "101", money.Coin200)

	want, err := s.Confirm(t.Context(), pending)
	require.NoError(t, err)

	got, err := s.Settled(t.Context(), pending.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = s.Settled(t.Context(), uuid.New())
	require.ErrorIs(t, err, ErrPurchaseNotFound)
	assert.NotErrorIs(t, err, ErrIO)
}
