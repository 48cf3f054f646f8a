package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fastprodman/vendingmachine/internal/api"
	"github.com/fastprodman/vendingmachine/internal/infra/logging"
	"github.com/fastprodman/vendingmachine/internal/infra/pgutils"
	"github.com/fastprodman/vendingmachine/internal/services/vending"
	"github.com/fastprodman/vendingmachine/pkg/envconf"
	"github.com/fastprodman/vendingmachine/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "vending api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	var cfg apiConfig

	err := envconf.Load(&cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetupJSON(cfg.Log.Level)

	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		retErr = errors.Join(retErr, shutdownqueue.Shutdown(drainCtx))
	}()

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	shutdownqueue.Add("postgres", func(context.Context) error {
		return db.Close()
	})

	svc := vending.New(db, cfg.Vending)

	if cfg.StartupReconcile {
		reconcileOnStartup(ctx, svc)
	}

	srv := api.NewServer(cfg.HTTP, api.NewHandler(vending.NewMachine(svc), svc, cfg.Vending.CurrencySuffix))

	shutdownqueue.Add("http server", srv.Shutdown)

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	slog.Info("vending api listening", "port", cfg.HTTP.Port, "currency", cfg.Vending.CurrencySuffix)

	select {
	case <-ctx.Done():
		slog.Info("signal received, draining")
		return nil
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	}
}

// reconcileOnStartup surfaces drawer or catalog damage left by an earlier
// crash. It never blocks startup: Reconcile already logs inconsistencies.
func reconcileOnStartup(ctx context.Context, svc *vending.Service) {
	rep, err := svc.Reconcile(ctx)
	if err != nil {
		slog.WarnContext(ctx, "startup reconcile failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "startup reconcile",
		"consistent", rep.Consistent(),
		"products", rep.Products,
		"drawer_value", rep.DrawerValue,
		"purchases", rep.Purchases.Count,
	)
}
