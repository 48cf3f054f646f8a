package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter registers the customer and admin endpoints.
func NewRouter(h *HandlerProvider) http.Handler {
	r := chi.NewRouter()

	r.Use(WithRequestID, LogRequests(slog.Default()), middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/products", h.ListProductsHandler)

	r.Route("/machine", func(r chi.Router) {
		r.Get("/", h.MachineHandler)
		r.Post("/keypad", h.PressKeyHandler)
		r.Post("/coins", h.InsertCoinHandler)
		r.Post("/confirm", h.ConfirmHandler)
		r.Post("/cancel", h.CancelHandler)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/reconcile", h.ReconcileHandler)
		r.Get("/purchases/{id}", h.PurchaseHandler)

		r.Post("/products/{code}/restock", h.RestockHandler)
		r.Put("/products/{code}/price", h.SetPriceHandler)
		r.Put("/products/{code}/stock", h.SetStockHandler)

		r.Get("/coins", h.ListCoinsHandler)
		r.Put("/coins/{denomination}", h.SetCoinCountHandler)
		r.Post("/coins/{denomination}/refill", h.RefillCoinHandler)
		r.Post("/coins/{denomination}/withdraw", h.WithdrawCoinHandler)
		r.Post("/coins/{denomination}/adjust", h.AdjustCoinCountHandler)
	})

	return r
}
