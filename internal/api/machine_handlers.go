package api

import (
	"net/http"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/services/vending"
)

// ListProductsHandler handles GET /products
func (h *HandlerProvider) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.operator.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]productView, 0, len(list))
	for _, p := range list {
		out = append(out, h.productView(p))
	}

	writeJSON(w, http.StatusOK, out)
}

// MachineHandler handles GET /machine
func (h *HandlerProvider) MachineHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.machineView(h.machine.Snapshot()))
}

type keyRequest struct {
	Key string `json:"key"`
}

// PressKeyHandler handles POST /machine/keypad
func (h *HandlerProvider) PressKeyHandler(w http.ResponseWriter, r *http.Request) {
	var req keyRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	snap, err := h.machine.PressKey(req.Key)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.machineView(snap))
}

type coinRequest struct {
	Coin string `json:"coin"`
}

// InsertCoinHandler handles POST /machine/coins
func (h *HandlerProvider) InsertCoinHandler(w http.ResponseWriter, r *http.Request) {
	var req coinRequest

	err := decodeBody(w, r, &req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	d, err := money.ParseDenomination(req.Coin)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	snap, err := h.machine.InsertCoin(d)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.machineView(snap))
}

type receiptView struct {
	vending.Receipt
	Message string `json:"message"`
}

// ConfirmHandler handles POST /machine/confirm
func (h *HandlerProvider) ConfirmHandler(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.machine.Confirm(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg := "Enjoy your " + receipt.Name
	if receipt.ChangeDue > 0 {
		msg += ", change " + receipt.ChangeDue.Display(h.suffix)
	}

	writeJSON(w, http.StatusOK, receiptView{Receipt: receipt, Message: msg})
}

type refundView struct {
	vending.Refund
	Display string `json:"display"`
}

// CancelHandler handles POST /machine/cancel
func (h *HandlerProvider) CancelHandler(w http.ResponseWriter, r *http.Request) {
	refund, err := h.machine.Cancel(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refundView{Refund: refund, Display: refund.Amount.Display(h.suffix)})
}
