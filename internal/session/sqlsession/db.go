package sqlsession

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nikmy/txprop/pkg/errors"
)

type Config struct {
	DSN string `yaml:"dsn"`

	Pool struct {
		MaxOpen     int           `yaml:"maxOpen"`
		MaxIdle     int           `yaml:"maxIdle"`
		MaxLifetime time.Duration `yaml:"maxLifetime"`
	} `yaml:"pool"`
}

// Open connects to postgres and applies pool settings.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, classify(errors.WrapFail(err, "connect to postgres"))
	}

	maxOpen, maxIdle := cfg.Pool.MaxOpen, cfg.Pool.MaxIdle
	if maxOpen == 0 {
		maxOpen = 25
	}
	if maxIdle == 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(cfg.Pool.MaxLifetime)

	return db, nil
}
