package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastprodman/vendingmachine/internal/money"
)

func newCoinsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coins",
		Short: "Inspect and service the coin drawer",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show counts per denomination",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printCoins(cmd, a)
		},
	}

	single := func(use, short string, op func(ctx context.Context, d money.Denomination) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " DENOMINATION",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := money.ParseDenomination(args[0])
				if err != nil {
					return err
				}

				err = op(cmd.Context(), d)
				if err != nil {
					return err
				}

				return printCoins(cmd, a)
			},
		}
	}

	withCount := func(use, short string, op func(ctx context.Context, d money.Denomination, n int64) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " DENOMINATION N",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := money.ParseDenomination(args[0])
				if err != nil {
					return err
				}

				n, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("count %q: %w", args[1], err)
				}

				err = op(cmd.Context(), d, n)
				if err != nil {
					return err
				}

				return printCoins(cmd, a)
			},
		}
	}

	cmd.AddCommand(
		list,
		single("refill", "Fill one tube to the configured quantity", func(ctx context.Context, d money.Denomination) error {
			return a.svc.RefillCoin(ctx, d)
		}),
		single("withdraw", "Empty one tube", func(ctx context.Context, d money.Denomination) error {
			return a.svc.WithdrawCoin(ctx, d)
		}),
		withCount("set", "Overwrite the count of one denomination", func(ctx context.Context, d money.Denomination, n int64) error {
			return a.svc.SetCoinCount(ctx, d, n)
		}),
		withCount("adjust", "Add (or with a negative N remove) coins", func(ctx context.Context, d money.Denomination, n int64) error {
			return a.svc.AdjustCoinCount(ctx, d, n)
		}),
	)

	return cmd
}

func printCoins(cmd *cobra.Command, a *app) error {
	entries, err := a.svc.ListCoins(cmd.Context())
	if err != nil {
		return err
	}

	suffix := a.cfg.Vending.CurrencySuffix

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COIN\tCOUNT\tVALUE")

	var total money.Money
	for _, e := range entries {
		value := money.Money(int64(e.Denomination) * e.Count)
		total = total.Add(value)
		fmt.Fprintf(tw, "%s\t%d\t%s\n", e.Denomination.Value().Display(suffix), e.Count, value.Display(suffix))
	}

	fmt.Fprintf(tw, "TOTAL\t\t%s\n", total.Display(suffix))

	return tw.Flush()
}
