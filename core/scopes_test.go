package core

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

func TestFetchToken_DelegatesToCredential(t *testing.T) {
	issued := AccessToken{Token: "tok_1", ExpiresOn: time.Now().Add(time.Hour)}
	var gotScope string
	credential := TokenCredentialFunc(func(_ context.Context, scope string) (AccessToken, error) {
		gotScope = scope
		return issued, nil
	})

	token, err := FetchToken(context.Background(), credential, DatabaseScope)
	if err != nil {
		t.Fatalf("fetch token: %v", err)
	}
	if token.Token != "tok_1" {
		t.Fatalf("expected issued token, got %q", token.Token)
	}
	if gotScope != DatabaseScope {
		t.Fatalf("expected database scope, got %q", gotScope)
	}
}

func TestFetchToken_RejectsUnsupportedScope(t *testing.T) {
	credential := TokenCredentialFunc(func(context.Context, string) (AccessToken, error) {
		t.Fatal("credential must not be invoked for unsupported scopes")
		return AccessToken{}, nil
	})

	_, err := FetchToken(context.Background(), credential, "https://example.com/.default")
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected rich error, got %v", err)
	}
	if rich.TextCode != ErrorBadInput {
		t.Fatalf("expected %s text code, got %q", ErrorBadInput, rich.TextCode)
	}
}

func TestFetchToken_RequiresCredential(t *testing.T) {
	_, err := FetchToken(context.Background(), nil, ManagementScope)
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected rich error, got %v", err)
	}
	if rich.TextCode != ErrorCredentialRequired {
		t.Fatalf("expected %s text code, got %q", ErrorCredentialRequired, rich.TextCode)
	}
}

func TestFetchToken_PropagatesCredentialFailureUnchanged(t *testing.T) {
	fetchErr := errors.New("credential source unavailable")
	credential := TokenCredentialFunc(func(context.Context, string) (AccessToken, error) {
		return AccessToken{}, fetchErr
	})

	_, err := FetchToken(context.Background(), credential, ManagementScope)
	if err != fetchErr {
		t.Fatalf("expected credential failure to surface unchanged, got %v", err)
	}
}

func TestNewPasswordProvider_FetchesFreshDatabaseTokenPerInvocation(t *testing.T) {
	calls := 0
	credential := TokenCredentialFunc(func(_ context.Context, scope string) (AccessToken, error) {
		if scope != DatabaseScope {
			t.Fatalf("expected database scope, got %q", scope)
		}
		calls++
		return AccessToken{Token: "tok_" + string(rune('0'+calls))}, nil
	})

	provider := NewPasswordProvider(credential)
	first, err := provider.PasswordContext(context.Background())
	if err != nil {
		t.Fatalf("password context: %v", err)
	}
	second, err := provider.Password()
	if err != nil {
		t.Fatalf("password: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh token per invocation, got %q twice", first)
	}
	if calls != 2 {
		t.Fatalf("expected one fetch per invocation, got %d", calls)
	}
}

func TestPasswordProvider_ResolvePrefersContextCallback(t *testing.T) {
	provider := PasswordProvider{
		Password: func() (string, error) { return "blocking", nil },
		PasswordContext: func(context.Context) (string, error) {
			return "context", nil
		},
	}
	password, err := provider.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if password != "context" {
		t.Fatalf("expected context callback precedence, got %q", password)
	}

	blockingOnly := PasswordProvider{Password: func() (string, error) { return "blocking", nil }}
	password, err = blockingOnly.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve blocking: %v", err)
	}
	if password != "blocking" {
		t.Fatalf("expected blocking fallback, got %q", password)
	}

	if _, err := (PasswordProvider{}).Resolve(context.Background()); err == nil {
		t.Fatal("expected error for empty provider")
	}
}

func TestSettings_MutatesInPlace(t *testing.T) {
	settings := NewSettings("  svc_reader ")
	if settings.Username() != "svc_reader" {
		t.Fatalf("expected trimmed preset username, got %q", settings.Username())
	}
	settings.SetUsername("svc_writer")
	if settings.Username() != "svc_writer" {
		t.Fatalf("expected updated username, got %q", settings.Username())
	}
	if !settings.PasswordProvider().IsZero() {
		t.Fatal("expected no provider before install")
	}
	settings.SetPasswordProvider(PasswordProvider{Password: func() (string, error) { return "pw", nil }})
	if settings.PasswordProvider().IsZero() {
		t.Fatal("expected installed provider")
	}
}
