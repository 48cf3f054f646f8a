package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastprodman/vendingmachine/internal/money"
	"github.com/fastprodman/vendingmachine/internal/repos/products"
)

func newProductsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List and maintain the catalog",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List products sorted by code",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				list, err := a.svc.ListProducts(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CODE\tNAME\tPRICE\tSTOCK")
				for _, p := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", p.Code, p.Name, p.Price.Display(a.cfg.Vending.CurrencySuffix), p.Stock)
				}

				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "restock CODE",
			Short: "Refill a product to the configured quantity",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				code, err := products.ParseCode(args[0])
				if err != nil {
					return err
				}

				p, err := a.svc.Restock(cmd.Context(), code)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: stock %d\n", p.Code, p.Name, p.Stock)

				return nil
			},
		},
		&cobra.Command{
			Use:   "set-price CODE PRICE",
			Short: "Change a product's price, e.g. set-price 101 1.75",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				code, err := products.ParseCode(args[0])
				if err != nil {
					return err
				}

				price, err := money.Parse(args[1])
				if err != nil {
					return err
				}

				p, err := a.svc.SetPrice(cmd.Context(), code, price)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: price %s\n", p.Code, p.Name, p.Price.Display(a.cfg.Vending.CurrencySuffix))

				return nil
			},
		},
		&cobra.Command{
			Use:   "set-stock CODE QTY",
			Short: "Overwrite a product's stock",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				code, err := products.ParseCode(args[0])
				if err != nil {
					return err
				}

				qty, err := strconv.ParseInt(args[1], 10, 64)
				if err != nil {
					return fmt.Errorf("quantity %q: %w", args[1], err)
				}

				p, err := a.svc.SetStock(cmd.Context(), code, qty)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: stock %d\n", p.Code, p.Name, p.Stock)

				return nil
			},
		},
	)

	return cmd
}
