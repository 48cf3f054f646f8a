package main

import (
	"time"

	"github.com/fastprodman/vendingmachine/internal/config"
)

type apiConfig struct {
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	// StartupReconcile logs a reconciliation report before serving.
	StartupReconcile bool `env:"VEND_STARTUP_RECONCILE" default:"true"`

	HTTP     config.HTTPConfig
	Log      config.LogConfig
	Postgres config.PostgresConfig
	Vending  config.VendingConfig
}
