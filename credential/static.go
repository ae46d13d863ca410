package credential

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-entraauth/core"
)

// Static returns the same token for every scope. Useful for tests and for
// wiring externally managed tokens.
type Static struct {
	Token core.AccessToken
}

func (s Static) GetToken(context.Context, string) (core.AccessToken, error) {
	if strings.TrimSpace(s.Token.Token) == "" {
		return core.AccessToken{}, fmt.Errorf("credential: static token is empty")
	}
	return s.Token, nil
}

// DefaultTokenEnvVar is where the env credential looks for a pre-issued
// database access token.
const DefaultTokenEnvVar = "AZURE_DATABASE_ACCESS_TOKEN"

// EnvToken reads a pre-issued bearer token from an environment variable. The
// expiry is unknown, so the caching decorator never retains these tokens.
type EnvToken struct {
	// Var overrides DefaultTokenEnvVar.
	Var string
	// Lookup overrides os.LookupEnv, mainly for tests.
	Lookup func(key string) (string, bool)
}

func (e EnvToken) GetToken(context.Context, string) (core.AccessToken, error) {
	key := strings.TrimSpace(e.Var)
	if key == "" {
		key = DefaultTokenEnvVar
	}
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	value, ok := lookup(key)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return core.AccessToken{}, fmt.Errorf("credential: environment variable %s is not set", key)
	}
	return core.AccessToken{Token: value}, nil
}
