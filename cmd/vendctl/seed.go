package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fastprodman/vendingmachine/internal/seedfile"
)

func newSeedCmd(a *app) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load products and coin counts from a YAML file",
		Long: `Seed upserts every product in the file and overwrites the listed coin
counts, all in one transaction. Products and coins not in the file are left
alone. See seed.example.yaml for the format.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layout, err := seedfile.Load(path)
			if err != nil {
				return err
			}

			err = a.svc.Seed(cmd.Context(), layout.Products, layout.Drawer)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products and %d coin kinds from %s\n",
				len(layout.Products), len(layout.Drawer), path)

			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "seed.yaml", "Path to the seed file")

	return cmd
}
