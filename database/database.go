// Package database persists bucket/set metadata in PostgreSQL. The gateway
// core does not depend on it; it backs the optional set-listing endpoint
// and operator tooling.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds the connection settings for the metadata database.
type Config struct {
	// DSN is the PostgreSQL connection string. Empty disables the
	// database entirely.
	DSN string `mapstructure:"dsn"`
	// PoolSize caps concurrent connections. Zero keeps the driver default.
	PoolSize int32 `mapstructure:"pool_size" validate:"min=0"`
	// ConnectTimeout bounds pool establishment.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// Connect establishes a connection pool and verifies it with a ping. The
// returned cleanup function closes the pool.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, func(), error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolCfg.MaxConns = cfg.PoolSize
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, pool.Close, nil
}
