// Package bunconn provides a database/sql connector over bun's pgdriver that
// resolves a fresh token-based password for every physical connection, plus a
// helper returning a ready *bun.DB. pgdriver carries no password hook, so each
// Connect builds a new pgdriver connector around the freshly fetched password.
package bunconn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	entraauth "github.com/goliatone/go-entraauth"
	"github.com/goliatone/go-entraauth/core"
)

// Connector implements driver.Connector over pgdriver. The username is seeded
// from the DSN itself rather than pgdriver's defaults, so an absent user in
// the DSN still triggers claim-based username resolution.
type Connector struct {
	dsn      string
	username string
	provider core.PasswordProvider
}

var (
	_ driver.Connector      = (*Connector)(nil)
	_ core.ConnectionConfig = (*Connector)(nil)
)

// NewConnectorContext parses a postgres DSN, resolves credentials onto it,
// and returns a connector usable with sql.OpenDB or OpenDB.
func NewConnectorContext(ctx context.Context, dsn string, options ...entraauth.Option) (*Connector, error) {
	trimmed := strings.TrimSpace(dsn)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, core.NewBadInputError("bunconn: invalid dsn: " + err.Error())
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return nil, core.NewBadInputError("bunconn: dsn must use the postgres scheme")
	}

	connector := &Connector{dsn: trimmed}
	if parsed.User != nil {
		connector.username = parsed.User.Username()
	}
	if _, err := entraauth.ConfigureContext(ctx, connector, options...); err != nil {
		return nil, err
	}
	return connector, nil
}

// NewConnector is the blocking form of NewConnectorContext.
func NewConnector(dsn string, options ...entraauth.Option) (*Connector, error) {
	return NewConnectorContext(context.Background(), dsn, options...)
}

func (c *Connector) Username() string {
	return c.username
}

func (c *Connector) SetUsername(name string) {
	c.username = strings.TrimSpace(name)
}

func (c *Connector) SetPasswordProvider(provider core.PasswordProvider) {
	c.provider = provider
}

// Connect resolves a fresh password and dials through a pgdriver connector
// built for this connection.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	password, err := c.provider.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return pgdriver.NewConnector(c.driverOptions(password)...).Connect(ctx)
}

func (c *Connector) Driver() driver.Driver {
	return pgdriver.NewConnector(pgdriver.WithDSN(c.dsn)).Driver()
}

// OpenDB returns a bun.DB with the postgres dialect backed by this connector.
func (c *Connector) OpenDB(opts ...bun.DBOption) *bun.DB {
	sqldb := sql.OpenDB(c)
	return bun.NewDB(sqldb, pgdialect.New(), opts...)
}

func (c *Connector) driverOptions(password string) []pgdriver.Option {
	options := []pgdriver.Option{pgdriver.WithDSN(c.dsn)}
	if c.username != "" {
		options = append(options, pgdriver.WithUser(c.username))
	}
	return append(options, pgdriver.WithPassword(password))
}
