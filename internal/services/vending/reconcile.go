package vending

import (
	"context"
	"log/slog"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	"github.com/fastprodman/vendingmachine/internal/repos/purchases"
)

// Report is the result of re-reading the persisted machine state.
type Report struct {
	// MissingDenominations are accepted coins with no drawer row.
	MissingDenominations []money.Denomination `json:"missingDenominations"`
	// UnknownDenominations are drawer rows outside the accepted set.
	UnknownDenominations []int64          `json:"unknownDenominations"`
	NegativeCoins        []money.CoinCount `json:"negativeCoins"`
	NegativeStock        []products.Code   `json:"negativeStock"`
	NegativePrices       []products.Code   `json:"negativePrices"`
	OutOfStock           []products.Code   `json:"outOfStock"`
	Drawer               money.CoinSet     `json:"drawer"`
	DrawerValue          money.Money       `json:"drawerValue"`
	Products             int               `json:"products"`
	Purchases            purchases.Summary `json:"purchases"`
}

// Consistent reports whether no anomaly was found. Out-of-stock products are
// not anomalies.
func (r Report) Consistent() bool {
	return len(r.MissingDenominations) == 0 &&
		len(r.UnknownDenominations) == 0 &&
		len(r.NegativeCoins) == 0 &&
		len(r.NegativeStock) == 0 &&
		len(r.NegativePrices) == 0
}

// Reconcile re-reads coins, catalog and journal and reports anything a
// purchase or admin operation should never have left behind.
func (s *Service) Reconcile(ctx context.Context) (Report, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	entries, err := s.coins.List(ctx)
	if err != nil {
		return Report{}, classify("reconcile coins", err)
	}

	catalog, err := s.products.List(ctx)
	if err != nil {
		return Report{}, classify("reconcile products", err)
	}

	summary, err := s.purchases.Summary(ctx)
	if err != nil {
		return Report{}, classify("reconcile purchases", err)
	}

	rep := Report{
		Drawer:    money.CoinSet{},
		Products:  len(catalog),
		Purchases: summary,
	}

	seen := make(map[money.Denomination]bool, len(entries))
	for _, e := range entries {
		if !e.Denomination.Valid() {
			rep.UnknownDenominations = append(rep.UnknownDenominations, int64(e.Denomination))
			continue
		}

		seen[e.Denomination] = true

		if e.Count < 0 {
			rep.NegativeCoins = append(rep.NegativeCoins, money.CoinCount{Denomination: e.Denomination, Count: e.Count})
			continue
		}

		rep.Drawer[e.Denomination] = e.Count
	}

	for _, d := range money.Denominations() {
		if !seen[d] {
			rep.MissingDenominations = append(rep.MissingDenominations, d)
		}
	}

	rep.DrawerValue = rep.Drawer.Total()

	for _, p := range catalog {
		switch {
		case p.Stock < 0:
			rep.NegativeStock = append(rep.NegativeStock, p.Code)
		case p.Stock == 0:
			rep.OutOfStock = append(rep.OutOfStock, p.Code)
		}

		if p.Price.IsNegative() {
			rep.NegativePrices = append(rep.NegativePrices, p.Code)
		}
	}

	if !rep.Consistent() {
		slog.WarnContext(ctx, "reconciliation found inconsistencies",
			"missing", rep.MissingDenominations,
			"unknown", rep.UnknownDenominations,
			"negative_coins", len(rep.NegativeCoins),
			"negative_stock", rep.NegativeStock,
			"negative_prices", rep.NegativePrices,
		)
	}

	return rep, nil
}
