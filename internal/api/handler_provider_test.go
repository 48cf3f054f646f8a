package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	"github.com/fastprodman/vendingmachine/internal/repos/purchases"
	"github.com/fastprodman/vendingmachine/internal/services/vending"
)

type settleFunc func(ctx context.Context, p vending.PendingTransaction) (vending.Receipt, error)

func (f settleFunc) Confirm(ctx context.Context, p vending.PendingTransaction) (vending.Receipt, error) {
	return f(ctx, p)
}

func (f settleFunc) Settled(context.Context, uuid.UUID) (vending.Receipt, error) {
	return vending.Receipt{}, vending.ErrPurchaseNotFound
}

// fakeOperator keeps a tiny catalog and drawer in memory.
type fakeOperator struct {
	catalog map[products.Code]products.Product
	drawer  money.CoinSet
	failAll error
}

func newFakeOperator() *fakeOperator {
	return &fakeOperator{
		catalog: map[products.Code]products.Product{
			101: {Code: 101, Name: "Cola", Price: 150, Stock: 5},
			102: {Code: 102, Name: "Water", Price: 100, Stock: 0},
		},
		drawer: money.CoinSet{money.Coin200: 2, money.Coin50: 3},
	}
}

func (f *fakeOperator) get(code products.Code) (products.Product, error) {
	if f.failAll != nil {
		return products.Product{}, f.failAll
	}

	p, ok := f.catalog[code]
	if !ok {
		return products.Product{}, fmt.Errorf("%w: %s", vending.ErrProductNotFound, code)
	}

	return p, nil
}

func (f *fakeOperator) ListProducts(context.Context) ([]products.Product, error) {
	if f.failAll != nil {
		return nil, f.failAll
	}

	return []products.Product{f.catalog[101], f.catalog[102]}, nil
}

func (f *fakeOperator) ListCoins(context.Context) ([]coins.Entry, error) {
	out := []coins.Entry{}
	for _, d := range money.Denominations() {
		out = append(out, coins.Entry{Denomination: d, Count: f.drawer[d]})
	}

	return out, nil
}

func (f *fakeOperator) Restock(ctx context.Context, code products.Code) (products.Product, error) {
	return f.SetStock(ctx, code, 20)
}

func (f *fakeOperator) SetStock(_ context.Context, code products.Code, qty int64) (products.Product, error) {
	if qty < 0 {
		return products.Product{}, vending.ErrInvalidQuantity
	}

	p, err := f.get(code)
	if err != nil {
		return products.Product{}, err
	}

	p.Stock = qty
	f.catalog[code] = p

	return p, nil
}

func (f *fakeOperator) SetPrice(_ context.Context, code products.Code, price money.Money) (products.Product, error) {
	if price.IsNegative() {
		return products.Product{}, vending.ErrInvalidPrice
	}

	p, err := f.get(code)
	if err != nil {
		return products.Product{}, err
	}

	p.Price = price
	f.catalog[code] = p

	return p, nil
}

func (f *fakeOperator) RefillCoin(ctx context.Context, d money.Denomination) error {
	return f.SetCoinCount(ctx, d, 20)
}

func (f *fakeOperator) WithdrawCoin(ctx context.Context, d money.Denomination) error {
	return f.SetCoinCount(ctx, d, 0)
}

func (f *fakeOperator) SetCoinCount(_ context.Context, d money.Denomination, qty int64) error {
	f.drawer[d] = qty
	return nil
}

func (f *fakeOperator) AdjustCoinCount(_ context.Context, d money.Denomination, delta int64) error {
	if f.drawer[d]+delta < 0 {
		return vending.ErrInsufficientCoins
	}

	f.drawer[d] += delta

	return nil
}

func (f *fakeOperator) Reconcile(context.Context) (vending.Report, error) {
	return vending.Report{Drawer: f.drawer.Clone(), DrawerValue: f.drawer.Total(), Products: len(f.catalog)}, nil
}

func (f *fakeOperator) Purchase(_ context.Context, id uuid.UUID) (purchases.Record, error) {
	return purchases.Record{}, fmt.Errorf("%w: %s", vending.ErrPurchaseNotFound, id)
}

func newTestRouter(t *testing.T, settle settleFunc) (http.Handler, *fakeOperator) {
	t.Helper()

	op := newFakeOperator()
	if settle == nil {
		settle = func(_ context.Context, p vending.PendingTransaction) (vending.Receipt, error) {
			return vending.Receipt{PurchaseID: p.ID, Code: 101, Name: "Cola", Price: 150, Paid: p.Balance, ChangeDue: p.Balance - 150}, nil
		}
	}

	h := NewHandler(vending.NewMachine(settle), op, "€")

	return NewRouter(h), op
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())

	return v
}

func TestRouter_PurchaseFlow(t *testing.T) {
	t.Parallel()

	h, _ := newTestRouter(t, nil)

	for _, k := range []string{"1", "0", "1"} {
		rec := do(t, h, http.MethodPost, "/machine/keypad", fmt.Sprintf(`{"key":%q}`, k))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := do(t, h, http.MethodPost, "/machine/coins", `{"coin":"2.00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	view := decode[machineView](t, rec)
	assert.Equal(t, vending.StateReadyToConfirm, view.State)
	assert.Equal(t, "101", view.Code)
	assert.Equal(t, money.Money(200), view.Balance)
	assert.Equal(t, "2.00€", view.Display)

	rec = do(t, h, http.MethodPost, "/machine/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "0.50", body["changeDue"])
	assert.Equal(t, "Enjoy your Cola, change 0.50€", body["message"])

	rec = do(t, h, http.MethodGet, "/machine", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, vending.StateIdle, decode[machineView](t, rec).State)
}

func TestRouter_ConfirmErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"change_unavailable", vending.ErrChangeUnavailable, http.StatusConflict, "change_unavailable"},
		{"out_of_stock", vending.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
		{"insufficient_balance", vending.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
		{"not_found", vending.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
		{"io", fmt.Errorf("confirm purchase: %w: %w", vending.ErrIO, context.DeadlineExceeded), http.StatusServiceUnavailable, "storage_unavailable"},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newTestRouter(t, func(context.Context, vending.PendingTransaction) (vending.Receipt, error) {
				return vending.Receipt{}, tt.err
			})

			do(t, h, http.MethodPost, "/machine/keypad", `{"key":"1"}`)
			do(t, h, http.MethodPost, "/machine/coins", `{"coin":"1.00"}`)

			rec := do(t, h, http.MethodPost, "/machine/confirm", "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantKind, decode[errorResponse](t, rec).Kind)

			rec = do(t, h, http.MethodGet, "/machine", "")
			assert.Equal(t, money.Money(100), decode[machineView](t, rec).Balance, "balance kept after rejection")
		})
	}
}

func TestRouter_InputValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantKind   string
	}{
		{"unknown_coin", http.MethodPost, "/machine/coins", `{"coin":"0.01"}`, http.StatusBadRequest, "unknown_denomination"},
		{"letter_key", http.MethodPost, "/machine/keypad", `{"key":"A"}`, http.StatusBadRequest, "invalid_key"},
		{"empty_body", http.MethodPost, "/machine/keypad", "", http.StatusBadRequest, "invalid_request"},
		{"unknown_field", http.MethodPost, "/machine/coins", `{"coin":"0.50","extra":1}`, http.StatusBadRequest, "invalid_request"},
		{"confirm_without_code", http.MethodPost, "/machine/confirm", "", http.StatusBadRequest, "code_required"},
		{"negative_price", http.MethodPut, "/admin/products/101/price", `{"price":"-1.00"}`, http.StatusBadRequest, "invalid_price"},
		{"bad_price", http.MethodPut, "/admin/products/101/price", `{"price":"1.234"}`, http.StatusBadRequest, "invalid_amount"},
		{"negative_stock", http.MethodPut, "/admin/products/101/stock", `{"stock":-1}`, http.StatusBadRequest, "invalid_quantity"},
		{"unknown_product", http.MethodPost, "/admin/products/999/restock", "", http.StatusNotFound, "product_not_found"},
		{"bad_product_code", http.MethodPost, "/admin/products/abc/restock", "", http.StatusNotFound, "product_not_found"},
		{"unknown_denomination_path", http.MethodPost, "/admin/coins/0.03/refill", "", http.StatusBadRequest, "unknown_denomination"},
		{"overdraw_coins", http.MethodPost, "/admin/coins/0.50/adjust", `{"delta":-4}`, http.StatusConflict, "insufficient_coins"},
		{"purchase_not_found", http.MethodGet, "/admin/purchases/" + uuid.NewString(), "", http.StatusNotFound, "purchase_not_found"},
		{"bad_purchase_id", http.MethodGet, "/admin/purchases/nope", "", http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _ := newTestRouter(t, nil)

			rec := do(t, h, tt.method, tt.path, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantKind, decode[errorResponse](t, rec).Kind)
		})
	}
}

func TestRouter_AdminOperations(t *testing.T) {
	t.Parallel()

	h, op := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/admin/products/102/restock", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(20), decode[productView](t, rec).Stock)

	rec = do(t, h, http.MethodPut, "/admin/products/101/price", `{"price":"1.75"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pv := decode[productView](t, rec)
	assert.Equal(t, money.Money(175), pv.Price)
	assert.Equal(t, "1.75€", pv.Display)

	rec = do(t, h, http.MethodPost, "/admin/coins/0.50/withdraw", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, op.drawer[money.Coin50])

	rec = do(t, h, http.MethodPost, "/admin/coins/2.00/refill", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(20), op.drawer[money.Coin200])

	rec = do(t, h, http.MethodPut, "/admin/coins/0.10", `{"count":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(7), op.drawer[money.Coin10])

	rec = do(t, h, http.MethodPost, "/admin/coins/0.10/adjust", `{"delta":-2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(5), op.drawer[money.Coin10])

	entries := decode[[]coins.Entry](t, rec)
	require.Len(t, entries, 6)
	assert.Equal(t, money.Coin200, entries[0].Denomination)

	rec = do(t, h, http.MethodGet, "/admin/reconcile", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[reconcileView](t, rec).Consistent)
}

func TestRouter_ProductsAndHealth(t *testing.T) {
	t.Parallel()

	h, op := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = do(t, h, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[[]productView](t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Cola", list[0].Name)
	assert.Equal(t, "1.50€", list[0].Display)

	op.failAll = fmt.Errorf("list products: %w: conn refused", vending.ErrIO)

	rec = do(t, h, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestWithRequestID_PropagatesHeader(t *testing.T) {
	t.Parallel()

	var seen string
	h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-42")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-Id"))
}

func TestWithRequestID_AssignsWhenMissing(t *testing.T) {
	t.Parallel()

	var seen string
	h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))
}

func TestRouter_RecoversPanic(t *testing.T) {
	t.Parallel()

	r := chi.NewRouter()
	r.Use(WithRequestID, LogRequests(slog.New(slog.NewJSONHandler(io.Discard, nil))), middleware.Recoverer)
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("handler bug")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogRequests_RecordsStatusAndBytes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := WithRequestID(LogRequests(slog.New(slog.NewJSONHandler(&buf, nil)))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		})))

	req := httptest.NewRequest(http.MethodGet, "/teapot", nil)
	req.Header.Set("X-Request-Id", "req-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line struct {
		Status    int    `json:"status"`
		Bytes     int    `json:"bytes"`
		Path      string `json:"path"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, http.StatusTeapot, line.Status)
	assert.Equal(t, len("short and stout"), line.Bytes)
	assert.Equal(t, "/teapot", line.Path)
	assert.Equal(t, "req-7", line.RequestID)
}
