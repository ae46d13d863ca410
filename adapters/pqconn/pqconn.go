// Package pqconn provides a database/sql connector over lib/pq that resolves
// a fresh token-based password for every physical connection. lib/pq has no
// per-connection password hook, so each Connect renders the DSN with the
// freshly fetched password and delegates to a new pq connector.
package pqconn

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net/url"
	"strings"

	"github.com/lib/pq"

	entraauth "github.com/goliatone/go-entraauth"
	"github.com/goliatone/go-entraauth/core"
)

// Connector implements driver.Connector. The username and provider are fixed
// at construction time by the configurator; Connect only reads them, so the
// connector is safe for concurrent use by sql.DB.
type Connector struct {
	base     *url.URL
	username string
	provider core.PasswordProvider
}

var (
	_ driver.Connector      = (*Connector)(nil)
	_ core.ConnectionConfig = (*Connector)(nil)
)

// NewConnectorContext parses a postgres URL, resolves credentials onto it,
// and returns a connector usable with sql.OpenDB.
func NewConnectorContext(ctx context.Context, connString string, options ...entraauth.Option) (*Connector, error) {
	parsed, err := url.Parse(strings.TrimSpace(connString))
	if err != nil {
		return nil, core.NewBadInputError("pqconn: invalid connection url: " + err.Error())
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return nil, core.NewBadInputError("pqconn: connection url must use the postgres scheme")
	}

	connector := &Connector{base: parsed}
	if parsed.User != nil {
		connector.username = parsed.User.Username()
	}
	if _, err := entraauth.ConfigureContext(ctx, connector, options...); err != nil {
		return nil, err
	}
	return connector, nil
}

// NewConnector is the blocking form of NewConnectorContext.
func NewConnector(connString string, options ...entraauth.Option) (*Connector, error) {
	return NewConnectorContext(context.Background(), connString, options...)
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

// Connect resolves a fresh password and dials through a pq connector built
// from the rendered DSN.
func (c *Connector) Connect(ctx context.Context) (driver.Conn, error) {
	password, err := c.provider.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	inner, err := pq.NewConnector(c.dsn(password))
	if err != nil {
		return nil, err
	}
	return inner.Connect(ctx)
}

func (c *Connector) Driver() driver.Driver {
	return &pq.Driver{}
}

// OpenDB returns a sql.DB backed by this connector.
func (c *Connector) OpenDB() *sql.DB {
	return sql.OpenDB(c)
}

func (c *Connector) dsn(password string) string {
	rendered := *c.base
	rendered.User = url.UserPassword(c.username, password)
	return rendered.String()
}
