package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fastprodman/vendingmachine/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write catalog, drawer and reconciliation to an .xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			list, err := a.svc.ListProducts(ctx)
			if err != nil {
				return err
			}

			entries, err := a.svc.ListCoins(ctx)
			if err != nil {
				return err
			}

			rep, err := a.svc.Reconcile(ctx)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}

			err = report.Write(f, report.Input{
				Products: list,
				Coins:    entries,
				Report:   rep,
				Suffix:   a.cfg.Vending.CurrencySuffix,
			})
			if err != nil {
				_ = f.Close()
				return err
			}

			err = f.Close()
			if err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", out)

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "vending-report.xlsx", "Output file")

	return cmd
}
