// Package entraauth configures database connections to authenticate with
// cloud identity tokens instead of static passwords. Configure resolves a
// database role name from token claims when the connection config carries
// none, and installs a password provider that fetches a fresh database-scope
// token for every new physical connection a pool opens.
package entraauth

import (
	"context"
	"reflect"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-entraauth/claims"
	"github.com/goliatone/go-entraauth/core"
	"github.com/goliatone/go-entraauth/credential"
)

type configurator struct {
	credential     core.TokenCredential
	logger         core.Logger
	loggerProvider core.LoggerProvider
	chainOptions   []credential.DefaultChainOption
}

type Option func(*configurator)

// WithCredential supplies the token credential. When omitted, the
// platform-default chain from the credential package is substituted.
func WithCredential(cred core.TokenCredential) Option {
	return func(c *configurator) {
		c.credential = cred
	}
}

func WithLogger(logger core.Logger) Option {
	return func(c *configurator) {
		c.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(c *configurator) {
		c.loggerProvider = provider
	}
}

// WithDefaultChainOptions forwards options to the default credential chain.
// They have no effect when WithCredential is also given.
func WithDefaultChainOptions(options ...credential.DefaultChainOption) Option {
	return func(c *configurator) {
		c.chainOptions = append(c.chainOptions, options...)
	}
}

// ConfigureContext resolves credentials onto conn and returns the same
// instance. When conn carries no username, one is resolved from token claims:
// the management-scope token is tried first, then the database-scope token;
// exhausting both without a claim match fails with ErrUsernameResolution. A
// preset username is never overwritten and skips token fetching entirely. The
// password provider is installed unconditionally; each of its invocations
// fetches a fresh database-scope token. Credential failures surface to the
// caller unchanged.
func ConfigureContext[T core.ConnectionConfig](ctx context.Context, conn T, options ...Option) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if isNilConfig(conn) {
		return conn, core.NewBadInputError("entraauth: connection config is required")
	}

	builder := configurator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}
	logger := resolveLogger(builder.loggerProvider, builder.logger)

	cred := builder.credential
	if cred == nil {
		chain, err := credential.NewDefaultChain(ctx, append(builder.chainOptions, credential.WithLogger(logger))...)
		if err != nil {
			return conn, err
		}
		cred = chain
	}

	if strings.TrimSpace(conn.Username()) == "" {
		operationID := uuid.NewString()
		username, err := resolveUsername(ctx, cred, logger, operationID)
		if err != nil {
			return conn, err
		}
		conn.SetUsername(username)
	}

	conn.SetPasswordProvider(core.NewPasswordProvider(cred))
	return conn, nil
}

// Configure is the blocking form of ConfigureContext.
func Configure[T core.ConnectionConfig](conn T, options ...Option) (T, error) {
	return ConfigureContext(context.Background(), conn, options...)
}

// resolveUsername walks the scope tiers in order. A token whose payload cannot
// be decoded or carries no recognized claim moves resolution to the next tier;
// a failed fetch is fatal and propagates unchanged.
func resolveUsername(ctx context.Context, cred core.TokenCredential, logger core.Logger, operationID string) (string, error) {
	scopes := core.SupportedScopes()
	for _, scope := range scopes {
		token, err := core.FetchToken(ctx, cred, scope)
		if err != nil {
			return "", err
		}
		if username, ok := claims.UsernameFromToken(token.Token); ok {
			logger.Info("resolved username from token claims",
				"operation_id", operationID,
				"scope", scope,
				"username", username,
			)
			return username, nil
		}
		logger.Debug("token carries no recognized username claim",
			"operation_id", operationID,
			"scope", scope,
		)
	}
	return "", &UsernameResolutionError{Scopes: scopes}
}

func resolveLogger(provider core.LoggerProvider, logger core.Logger) core.Logger {
	resolvedProvider, resolved := glog.Resolve("entraauth", provider, logger)
	resolved = glog.Ensure(resolved)
	if resolvedProvider != nil {
		if named := resolvedProvider.GetLogger("entraauth"); named != nil {
			resolved = glog.Ensure(named)
		}
	}
	return resolved
}

func isNilConfig(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Func, reflect.Chan, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
