// Package pgxconn wires token-based credentials onto a pgx connection pool.
// The pool's BeforeConnect hook re-runs the installed password provider for
// every physical connection it opens, so each connection authenticates with a
// token fetched at connect time.
package pgxconn

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	entraauth "github.com/goliatone/go-entraauth"
	"github.com/goliatone/go-entraauth/core"
)

// Config adapts a *pgxpool.Config to the connection-config surface the
// configurator mutates.
type Config struct {
	pool     *pgxpool.Config
	provider core.PasswordProvider
}

var _ core.ConnectionConfig = (*Config)(nil)

// Wrap adapts an existing pool config. The config is mutated in place.
func Wrap(pool *pgxpool.Config) (*Config, error) {
	if pool == nil || pool.ConnConfig == nil {
		return nil, core.NewBadInputError("pgxconn: pool config is required")
	}
	return &Config{pool: pool}, nil
}

func (c *Config) Username() string {
	return c.pool.ConnConfig.User
}

func (c *Config) SetUsername(name string) {
	c.pool.ConnConfig.User = strings.TrimSpace(name)
}

// SetPasswordProvider installs the provider behind the pool's BeforeConnect
// hook. The hook resolves a fresh password on every invocation; nothing is
// reused across connections.
func (c *Config) SetPasswordProvider(provider core.PasswordProvider) {
	c.provider = provider
	c.pool.BeforeConnect = func(ctx context.Context, conn *pgx.ConnConfig) error {
		password, err := provider.Resolve(ctx)
		if err != nil {
			return err
		}
		conn.Password = password
		return nil
	}
}

// PoolConfig returns the underlying pool config.
func (c *Config) PoolConfig() *pgxpool.Config {
	return c.pool
}

// Pool builds the connection pool from the configured settings.
func (c *Config) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	return pgxpool.NewWithConfig(ctx, c.pool)
}

// NewPool parses connString, resolves credentials onto it, and opens a pool.
func NewPool(ctx context.Context, connString string, options ...entraauth.Option) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	wrapped, err := Wrap(poolConfig)
	if err != nil {
		return nil, err
	}
	if _, err := entraauth.ConfigureContext(ctx, wrapped, options...); err != nil {
		return nil, err
	}
	return wrapped.Pool(ctx)
}
