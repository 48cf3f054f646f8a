package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	"github.com/fastprodman/vendingmachine/internal/repos/purchases"
	"github.com/fastprodman/vendingmachine/internal/services/vending"
)

// Machine is the customer-facing side of one vending machine.
type Machine interface {
	Snapshot() vending.Snapshot
	PressKey(key string) (vending.Snapshot, error)
	InsertCoin(d money.Denomination) (vending.Snapshot, error)
	Confirm(ctx context.Context) (vending.Receipt, error)
	Cancel(ctx context.Context) (vending.Refund, error)
}

// Operator is the catalog, the coin inventory and the admin operations on them.
type Operator interface {
	ListProducts(ctx context.Context) ([]products.Product, error)
	ListCoins(ctx context.Context) ([]coins.Entry, error)
	Restock(ctx context.Context, code products.Code) (products.Product, error)
	SetStock(ctx context.Context, code products.Code, qty int64) (products.Product, error)
	SetPrice(ctx context.Context, code products.Code, price money.Money) (products.Product, error)
	RefillCoin(ctx context.Context, d money.Denomination) error
	WithdrawCoin(ctx context.Context, d money.Denomination) error
	SetCoinCount(ctx context.Context, d money.Denomination, qty int64) error
	AdjustCoinCount(ctx context.Context, d money.Denomination, delta int64) error
	Reconcile(ctx context.Context) (vending.Report, error)
	Purchase(ctx context.Context, id uuid.UUID) (purchases.Record, error)
}

// HandlerProvider exposes a machine and its operator over HTTP.
type HandlerProvider struct {
	machine  Machine
	operator Operator
	// suffix is appended to amounts rendered for display, e.g. "€".
	suffix string
}

func NewHandler(machine Machine, operator Operator, currencySuffix string) *HandlerProvider {
	return &HandlerProvider{
		machine:  machine,
		operator: operator,
		suffix:   currencySuffix,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind})
}

type errorMapping struct {
	target error
	status int
	kind   string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{vending.ErrIO, http.StatusServiceUnavailable, "storage_unavailable"},
	{vending.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{vending.ErrPurchaseNotFound, http.StatusNotFound, "purchase_not_found"},
	{vending.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{vending.ErrInsufficientBalance, http.StatusConflict, "insufficient_balance"},
	{vending.ErrChangeUnavailable, http.StatusConflict, "change_unavailable"},
	{vending.ErrInsufficientCoins, http.StatusConflict, "insufficient_coins"},
	{vending.ErrDuplicatePurchase, http.StatusConflict, "duplicate_purchase"},
	{vending.ErrSettling, http.StatusConflict, "settling"},
	{vending.ErrUnknownDenomination, http.StatusBadRequest, "unknown_denomination"},
	{vending.ErrInvalidPrice, http.StatusBadRequest, "invalid_price"},
	{vending.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{products.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{coins.ErrInvalidQuantity, http.StatusBadRequest, "invalid_quantity"},
	{vending.ErrCodeRequired, http.StatusBadRequest, "code_required"},
	{vending.ErrCodeTooLong, http.StatusBadRequest, "code_too_long"},
	{vending.ErrInvalidKey, http.StatusBadRequest, "invalid_key"},
	{vending.ErrNegativeResult, http.StatusBadRequest, "negative_amount"},
	{money.ErrInvalidAmount, http.StatusBadRequest, "invalid_amount"},
}

// writeServiceError maps a domain failure to a status and a stable kind.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				slog.ErrorContext(r.Context(), "request failed",
					"path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()), "error", err)
			}

			writeError(w, m.status, m.kind, err.Error())
			return
		}
	}

	slog.ErrorContext(r.Context(), "unexpected error",
		"path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()), "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal error")
}

// decodeBody reads a size-capped JSON body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}

		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

func parseCodeFromPath(r *http.Request) (products.Code, error) {
	raw := chi.URLParam(r, "code")
	if raw == "" {
		return 0, errors.New("missing product code")
	}

	return products.ParseCode(raw)
}

func parseDenominationFromPath(r *http.Request) (money.Denomination, error) {
	raw := chi.URLParam(r, "denomination")
	if raw == "" {
		return 0, errors.New("missing denomination")
	}

	return money.ParseDenomination(raw)
}

// --- Views ---

type productView struct {
	Code    products.Code `json:"code"`
	Name    string        `json:"name"`
	Price   money.Money   `json:"price"`
	Display string        `json:"display"`
	Stock   int64         `json:"stock"`
	Image   string        `json:"image,omitempty"`
}

func (h *HandlerProvider) productView(p products.Product) productView {
	return productView{
		Code:    p.Code,
		Name:    p.Name,
		Price:   p.Price,
		Display: p.Price.Display(h.suffix),
		Stock:   p.Stock,
		Image:   p.Image,
	}
}

type machineView struct {
	State    vending.State `json:"state"`
	Code     string        `json:"code"`
	Balance  money.Money   `json:"balance"`
	Display  string        `json:"display"`
	Inserted money.CoinSet `json:"inserted"`
}

func (h *HandlerProvider) machineView(s vending.Snapshot) machineView {
	return machineView{
		State:    s.State,
		Code:     s.Code,
		Balance:  s.Balance,
		Display:  s.Balance.Display(h.suffix),
		Inserted: s.Inserted,
	}
}
