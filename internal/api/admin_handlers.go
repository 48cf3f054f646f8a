package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/services/vending"
)

// ListCoinsHandler handles GET /admin/coins
func (h *HandlerProvider) ListCoinsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.operator.ListCoins(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, list)
}

// RestockHandler handles POST /admin/products/{code}/restock
func (h *HandlerProvider) RestockHandler(w http.ResponseWriter, r *http.Request) {
	code, err := parseCodeFromPath(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.operator.Restock(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.productView(p))
}

type priceRequest struct {
	Price string `json:"price"`
}

// SetPriceHandler handles PUT /admin/products/{code}/price
func (h *HandlerProvider) SetPriceHandler(w http.ResponseWriter, r *http.Request) {
	code, err := parseCodeFromPath(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req priceRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	price, err := money.Parse(req.Price)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.operator.SetPrice(r.Context(), code, price)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.productView(p))
}

type stockRequest struct {
	Stock int64 `json:"stock"`
}

// SetStockHandler handles PUT /admin/products/{code}/stock
func (h *HandlerProvider) SetStockHandler(w http.ResponseWriter, r *http.Request) {
	code, err := parseCodeFromPath(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req stockRequest

	err = decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	p, err := h.operator.SetStock(r.Context(), code, req.Stock)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.productView(p))
}

// coinOp adapts a single-denomination admin call into a handler that replies
// with the updated drawer.
func (h *HandlerProvider) coinOp(op func(ctx context.Context, d money.Denomination) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := parseDenominationFromPath(r)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		err = op(r.Context(), d)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		h.ListCoinsHandler(w, r)
	}
}

// RefillCoinHandler handles POST /admin/coins/{denomination}/refill
func (h *HandlerProvider) RefillCoinHandler(w http.ResponseWriter, r *http.Request) {
	h.coinOp(h.operator.RefillCoin)(w, r)
}

// WithdrawCoinHandler handles POST /admin/coins/{denomination}/withdraw
func (h *HandlerProvider) WithdrawCoinHandler(w http.ResponseWriter, r *http.Request) {
	h.coinOp(h.operator.WithdrawCoin)(w, r)
}

type countRequest struct {
	Count int64 `json:"count"`
}

// SetCoinCountHandler handles PUT /admin/coins/{denomination}
func (h *HandlerProvider) SetCoinCountHandler(w http.ResponseWriter, r *http.Request) {
	var req countRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	h.coinOp(func(ctx context.Context, d money.Denomination) error {
		return h.operator.SetCoinCount(ctx, d, req.Count)
	})(w, r)
}

type adjustRequest struct {
	Delta int64 `json:"delta"`
}

// AdjustCoinCountHandler handles POST /admin/coins/{denomination}/adjust
func (h *HandlerProvider) AdjustCoinCountHandler(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	h.coinOp(func(ctx context.Context, d money.Denomination) error {
		return h.operator.AdjustCoinCount(ctx, d, req.Delta)
	})(w, r)
}

type reconcileView struct {
	Consistent bool           `json:"consistent"`
	Report     vending.Report `json:"report"`
}

// ReconcileHandler handles GET /admin/reconcile
func (h *HandlerProvider) ReconcileHandler(w http.ResponseWriter, r *http.Request) {
	rep, err := h.operator.Reconcile(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reconcileView{Consistent: rep.Consistent(), Report: rep})
}

// PurchaseHandler handles GET /admin/purchases/{id}
func (h *HandlerProvider) PurchaseHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid purchase id")
		return
	}

	rec, err := h.operator.Purchase(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
