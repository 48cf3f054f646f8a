// Package report renders a machine's catalog, drawer and reconciliation as
// an .xlsx workbook.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/coins"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
	"github.com/fastprodman/vendingmachine/internal/services/vending"
)

const (
	SheetProducts  = "Products"
	SheetCoins     = "Coins"
	SheetReconcile = "Reconciliation"
)

// Input is everything one workbook shows.
type Input struct {
	Products []products.Product
	Coins    []coins.Entry
	Report   vending.Report
	// Suffix is appended to rendered amounts, e.g. "€".
	Suffix string
}

// Build lays out the workbook. The caller owns the returned file and must
// Close it.
func Build(in Input) (*excelize.File, error) {
	f := excelize.NewFile()

	err := f.SetSheetName(f.GetSheetName(0), SheetProducts)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	steps := []func(*excelize.File, Input) error{
		writeProducts,
		writeCoins,
		writeReconcile,
	}

	for _, step := range steps {
		err = step(f, in)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, in Input) error {
	f, err := Build(in)
	if err != nil {
		return err
	}
	//nolint:errcheck
	defer f.Close()

	_, err = f.WriteTo(w)
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func writeProducts(f *excelize.File, in Input) error {
	rows := [][]any{{"Code", "Name", "Price", "Stock", "Image"}}
	for _, p := range in.Products {
		rows = append(rows, []any{int64(p.Code), p.Name, p.Price.Display(in.Suffix), p.Stock, p.Image})
	}

	return writeRows(f, SheetProducts, rows)
}

func writeCoins(f *excelize.File, in Input) error {
	rows := [][]any{{"Denomination", "Count", "Value"}}

	var total money.Money
	for _, e := range in.Coins {
		value := money.Money(int64(e.Denomination) * e.Count)
		total = total.Add(value)
		rows = append(rows, []any{e.Denomination.Value().Display(in.Suffix), e.Count, value.Display(in.Suffix)})
	}

	rows = append(rows, []any{"Total", "", total.Display(in.Suffix)})

	return newSheet(f, SheetCoins, rows)
}

func writeReconcile(f *excelize.File, in Input) error {
	r := in.Report

	status := "consistent"
	if !r.Consistent() {
		status = "INCONSISTENT"
	}

	rows := [][]any{
		{"Check", "Value"},
		{"Status", status},
		{"Products", r.Products},
		{"Out of stock", joinCodes(r.OutOfStock)},
		{"Drawer value", r.DrawerValue.Display(in.Suffix)},
		{"Missing denominations", joinDenominations(r.MissingDenominations)},
		{"Unknown denominations", joinInts(r.UnknownDenominations)},
		{"Negative coin counts", len(r.NegativeCoins)},
		{"Negative stock", joinCodes(r.NegativeStock)},
		{"Negative prices", joinCodes(r.NegativePrices)},
		{"Purchases", r.Purchases.Count},
		{"Revenue", r.Purchases.Revenue.Display(in.Suffix)},
		{"Paid in", r.Purchases.Paid.Display(in.Suffix)},
		{"Change given", r.Purchases.ChangeGiven.Display(in.Suffix)},
	}

	return newSheet(f, SheetReconcile, rows)
}

func newSheet(f *excelize.File, name string, rows [][]any) error {
	_, err := f.NewSheet(name)
	if err != nil {
		return fmt.Errorf("new sheet %s: %w", name, err)
	}

	return writeRows(f, name, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}

		err = f.SetSheetRow(sheet, cell, &row)
		if err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}

	return nil
}

func joinCodes(codes []products.Code) string {
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		parts = append(parts, c.String())
	}

	return strings.Join(parts, ", ")
}

func joinDenominations(ds []money.Denomination) string {
	parts := make([]string, 0, len(ds))
	for _, d := range ds {
		parts = append(parts, d.String())
	}

	return strings.Join(parts, ", ")
}

func joinInts(ns []int64) string {
	parts := make([]string, 0, len(ns))
	for _, n := range ns {
		parts = append(parts, fmt.Sprint(n))
	}

	return strings.Join(parts, ", ")
}
