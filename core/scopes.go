package core

import (
	"context"
	"fmt"
	"strings"
)

// The two supported token scopes. Management tokens carry richer identity
// claims and are tried first during username resolution; database tokens are
// what the server accepts as a connection password.
const (
	ManagementScope = "https://management.azure.com/.default"
	DatabaseScope   = "https://ossrdbms-aad.database.windows.net/.default"
)

// SupportedScopes returns the fixed scope set in tier order.
func SupportedScopes() []string {
	return []string{ManagementScope, DatabaseScope}
}

// IsSupportedScope reports whether scope is one of the two fixed constants.
func IsSupportedScope(scope string) bool {
	trimmed := strings.TrimSpace(scope)
	return trimmed == ManagementScope || trimmed == DatabaseScope
}

// FetchToken requests one token for the given scope. Credential failures
// propagate unchanged; retry and backoff policy belong to the credential, not
// to callers of this function.
func FetchToken(ctx context.Context, credential TokenCredential, scope string) (AccessToken, error) {
	if credential == nil {
		return AccessToken{}, NewCredentialRequiredError()
	}
	if !IsSupportedScope(scope) {
		return AccessToken{}, NewBadInputError(fmt.Sprintf("core: unsupported token scope %q", scope))
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return credential.GetToken(ctx, strings.TrimSpace(scope))
}

// FetchTokenSync is the blocking form of FetchToken.
func FetchTokenSync(credential TokenCredential, scope string) (AccessToken, error) {
	return FetchToken(context.Background(), credential, scope)
}

// NewPasswordProvider builds the per-connection password pair: each callback
// invocation fetches a fresh database-scope token and returns its bearer
// string. Nothing is cached between invocations.
func NewPasswordProvider(credential TokenCredential) PasswordProvider {
	fetch := func(ctx context.Context) (string, error) {
		token, err := FetchToken(ctx, credential, DatabaseScope)
		if err != nil {
			return "", err
		}
		return token.Token, nil
	}
	return PasswordProvider{
		Password: func() (string, error) {
			return fetch(context.Background())
		},
		PasswordContext: fetch,
	}
}
