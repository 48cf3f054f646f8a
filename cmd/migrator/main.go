package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/fastprodman/vendingmachine/internal/config"
	"github.com/fastprodman/vendingmachine/internal/infra/logging"
	"github.com/fastprodman/vendingmachine/internal/infra/pgutils"
	"github.com/fastprodman/vendingmachine/pkg/envconf"
)

//go:embed migrations/*.sql
var baseFS embed.FS

//go:embed test_data/*.sql
var devFS embed.FS

const (
	schemaTable = "schema_migrations"
	// Demo data is versioned separately so its numbering cannot collide with
	// the schema's.
	seedTable = "seed_migrations"
)

type migratorConfig struct {
	Postgres config.PostgresConfig
	Log      config.LogConfig
	AppEnv   string `env:"APP_ENV" default:"PROD"`
	// Direction is "up" or "down". Down rolls back the demo data (in DEV)
	// and then the schema.
	Direction string `env:"MIGRATE_DIRECTION" default:"up"`
}

func main() {
	err := run()
	if err != nil {
		slog.Error("migration run failed", "error", err)
		os.Exit(1)
	}

	slog.Info("migration run finished successfully")
}

func run() error {
	cfg := new(migratorConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.SetupJSON(cfg.Log.Level)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	//nolint:errcheck
	defer db.Close()

	dev := cfg.AppEnv == "DEV"

	switch cfg.Direction {
	case "up":
		err = apply(db, baseFS, "migrations", schemaTable, up)
		if err != nil {
			return fmt.Errorf("base migrations: %w", err)
		}

		slog.Info("base migrations applied")

		if dev {
			err = apply(db, devFS, "test_data", seedTable, up)
			if err != nil {
				return fmt.Errorf("dev seed migrations: %w", err)
			}

			slog.Info("dev seed migrations applied")
		}
	case "down":
		if dev {
			err = apply(db, devFS, "test_data", seedTable, down)
			if err != nil {
				return fmt.Errorf("dev seed rollback: %w", err)
			}

			slog.Info("dev seed migrations rolled back")
		}

		err = apply(db, baseFS, "migrations", schemaTable, down)
		if err != nil {
			return fmt.Errorf("base rollback: %w", err)
		}

		slog.Info("base migrations rolled back")
	default:
		return fmt.Errorf("unknown MIGRATE_DIRECTION %q", cfg.Direction)
	}

	return nil
}

func up(m *migrate.Migrate) error   { return m.Up() }
func down(m *migrate.Migrate) error { return m.Down() }

func apply(db *sql.DB, fsys embed.FS, dir, table string, step func(*migrate.Migrate) error) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
	if err != nil {
		return fmt.Errorf("init postgres driver: %w", err)
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}

	err = step(m)
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", table, err)
	}

	return nil
}
