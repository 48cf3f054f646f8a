package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fastprodman/vendingmachine/internal/config"
	"github.com/fastprodman/vendingmachine/internal/infra/logging"
	"github.com/fastprodman/vendingmachine/internal/infra/pgutils"
	"github.com/fastprodman/vendingmachine/internal/services/vending"
	"github.com/fastprodman/vendingmachine/pkg/envconf"
)

type cliConfig struct {
	Log      config.LogConfig
	Postgres config.PostgresConfig
	Vending  config.VendingConfig
}

// app is built lazily so --help works without a database.
type app struct {
	cfg     cliConfig
	db      *sql.DB
	svc     *vending.Service
	verbose bool
}

func (a *app) open(ctx context.Context) error {
	err := envconf.Load(&a.cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := a.cfg.Log.Level
	if a.verbose {
		level = slog.LevelDebug
	}

	logging.SetupJSON(level)

	a.db, err = pgutils.OpenDB(ctx, a.cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	a.svc = vending.New(a.db, a.cfg.Vending)

	return nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

// needsDB reports whether cmd talks to the database; help and shell
// completion do not.
func needsDB(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
			return false
		}
	}

	return true
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "vendctl",
		Short:         "Service a vending machine: stock, prices, coins, reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !needsDB(cmd) {
				return nil
			}

			return a.open(cmd.Context())
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newProductsCmd(a),
		newCoinsCmd(a),
		newReconcileCmd(a),
		newSeedCmd(a),
		newReportCmd(a),
	)

	return root
}
