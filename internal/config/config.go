package config

import (
	"log/slog"
	"time"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS"     default:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS"     default:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" default:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME"  default:"30m"`
}

// VendingConfig tunes the machine and its admin operations.
type VendingConfig struct {
	// OpTimeout bounds every catalog/inventory round trip.
	OpTimeout      time.Duration `env:"VEND_OP_TIMEOUT"      default:"5s"`
	RestockQty     int64         `env:"VEND_RESTOCK_QTY"     default:"20"`
	CoinRefillQty  int64         `env:"VEND_COIN_REFILL_QTY" default:"20"`
	CurrencySuffix string        `env:"VEND_CURRENCY_SUFFIX" default:"€"`
}

type LogConfig struct {
	Level slog.Level `env:"APP_LOG_LEVEL" default:"INFO"`
}

// HTTPConfig configures the listener of cmd/api.
type HTTPConfig struct {
	Port              uint16        `env:"API_PORT"                 default:"8080"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT"        default:"15s"`
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" default:"5s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT"       default:"15s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT"        default:"60s"`
}
