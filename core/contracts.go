package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// AccessToken is an opaque bearer string plus its expiry instant. The token
// string is treated as a three-segment JWT only when extracting username
// claims; the expiry is owned by the credential that issued it.
type AccessToken struct {
	Token     string
	ExpiresOn time.Time
}

// TokenCredential produces access tokens for a requested scope. Implementations
// must be safe for concurrent use and own their caching/refresh policy; callers
// request a token per use and never cache the result themselves.
type TokenCredential interface {
	GetToken(ctx context.Context, scope string) (AccessToken, error)
}

// TokenCredentialFunc adapts a function to the TokenCredential interface.
type TokenCredentialFunc func(ctx context.Context, scope string) (AccessToken, error)

func (f TokenCredentialFunc) GetToken(ctx context.Context, scope string) (AccessToken, error) {
	return f(ctx, scope)
}

// PasswordProvider is the sync/async pair installed on a connection config.
// Both callbacks fetch a fresh database-scope token on every invocation; they
// hold no state across invocations and are safe to call concurrently from
// multiple pool workers.
type PasswordProvider struct {
	Password        func() (string, error)
	PasswordContext func(ctx context.Context) (string, error)
}

// Resolve invokes the context-aware callback when present, falling back to the
// blocking one. An empty provider yields a bad-input error.
func (p PasswordProvider) Resolve(ctx context.Context) (string, error) {
	if p.PasswordContext != nil {
		if ctx == nil {
			ctx = context.Background()
		}
		return p.PasswordContext(ctx)
	}
	if p.Password != nil {
		return p.Password()
	}
	return "", NewBadInputError("core: password provider has no callbacks")
}

// IsZero reports whether no callbacks have been installed.
func (p PasswordProvider) IsZero() bool {
	return p.Password == nil && p.PasswordContext == nil
}

// ConnectionConfig is the mutable connection-builder surface the configurator
// operates on: an optional username plus an installable password provider.
// The configurator mutates the value in place and returns the same instance.
type ConnectionConfig interface {
	Username() string
	SetUsername(name string)
	SetPasswordProvider(provider PasswordProvider)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
