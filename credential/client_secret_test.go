package credential

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-entraauth/core"
)

func TestClientSecret_FetchesToken(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	var gotPath string
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"grant_type":    r.FormValue("grant_type"),
			"client_id":     r.FormValue("client_id"),
			"client_secret": r.FormValue("client_secret"),
			"scope":         r.FormValue("scope"),
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok_client_secret",
			"expires_in":   3600,
		})
	}))
	defer server.Close()

	credential, err := NewClientSecret(ClientSecretConfig{
		TenantID:      "tenant-1",
		ClientID:      "client-1",
		ClientSecret:  "secret-1",
		AuthorityHost: server.URL,
		Now:           func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("new client secret: %v", err)
	}

	token, err := credential.GetToken(context.Background(), core.DatabaseScope)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token.Token != "tok_client_secret" {
		t.Fatalf("expected issued token, got %q", token.Token)
	}
	if !token.ExpiresOn.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry one hour out, got %v", token.ExpiresOn)
	}
	if gotPath != "/tenant-1/oauth2/v2.0/token" {
		t.Fatalf("expected tenant token endpoint, got %q", gotPath)
	}
	if gotForm["grant_type"] != "client_credentials" {
		t.Fatalf("expected client_credentials grant, got %q", gotForm["grant_type"])
	}
	if gotForm["scope"] != core.DatabaseScope {
		t.Fatalf("expected requested scope, got %q", gotForm["scope"])
	}
	if gotForm["client_id"] != "client-1" || gotForm["client_secret"] != "secret-1" {
		t.Fatalf("expected client credentials in form, got %v", gotForm)
	}
}

func TestClientSecret_ErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	credential, err := NewClientSecret(ClientSecretConfig{
		TenantID:      "tenant-1",
		ClientID:      "client-1",
		ClientSecret:  "secret-1",
		AuthorityHost: server.URL,
	})
	if err != nil {
		t.Fatalf("new client secret: %v", err)
	}

	_, err = credential.GetToken(context.Background(), core.DatabaseScope)
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClientSecret_RequiresFullConfig(t *testing.T) {
	cases := []ClientSecretConfig{
		{ClientID: "client", ClientSecret: "secret"},
		{TenantID: "tenant", ClientSecret: "secret"},
		{TenantID: "tenant", ClientID: "client"},
	}
	for _, cfg := range cases {
		if _, err := NewClientSecret(cfg); err == nil {
			t.Fatalf("expected validation error for %+v", cfg)
		}
	}
}

func TestManagedIdentity_FetchesToken(t *testing.T) {
	var gotMetadata string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMetadata = r.Header.Get("Metadata")
		gotQuery = map[string]string{
			"api-version": r.URL.Query().Get("api-version"),
			"resource":    r.URL.Query().Get("resource"),
			"client_id":   r.URL.Query().Get("client_id"),
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok_imds",
			"expires_on":   "1790000000",
		})
	}))
	defer server.Close()

	credential, err := NewManagedIdentity(ManagedIdentityConfig{
		Endpoint: server.URL,
		ClientID: "mi-client",
	})
	if err != nil {
		t.Fatalf("new managed identity: %v", err)
	}

	token, err := credential.GetToken(context.Background(), core.DatabaseScope)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token.Token != "tok_imds" {
		t.Fatalf("expected issued token, got %q", token.Token)
	}
	if !token.ExpiresOn.Equal(time.Unix(1790000000, 0).UTC()) {
		t.Fatalf("expected expiry from expires_on, got %v", token.ExpiresOn)
	}
	if gotMetadata != "true" {
		t.Fatalf("expected Metadata header, got %q", gotMetadata)
	}
	if gotQuery["resource"] != strings.TrimSuffix(core.DatabaseScope, "/.default") {
		t.Fatalf("expected scope translated to resource, got %q", gotQuery["resource"])
	}
	if gotQuery["api-version"] != "2018-02-01" {
		t.Fatalf("expected pinned api version, got %q", gotQuery["api-version"])
	}
	if gotQuery["client_id"] != "mi-client" {
		t.Fatalf("expected user-assigned client id, got %q", gotQuery["client_id"])
	}
}

func TestManagedIdentity_NumericExpiresOn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok_imds",
			"expires_on":   1790000000,
		})
	}))
	defer server.Close()

	credential, err := NewManagedIdentity(ManagedIdentityConfig{Endpoint: server.URL})
	if err != nil {
		t.Fatalf("new managed identity: %v", err)
	}
	token, err := credential.GetToken(context.Background(), core.DatabaseScope)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if !token.ExpiresOn.Equal(time.Unix(1790000000, 0).UTC()) {
		t.Fatalf("expected numeric expires_on parsed, got %v", token.ExpiresOn)
	}
}

func TestEnvToken(t *testing.T) {
	env := map[string]string{"CUSTOM_TOKEN": "tok_env"}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}

	token, err := EnvToken{Var: "CUSTOM_TOKEN", Lookup: lookup}.GetToken(context.Background(), core.DatabaseScope)
	if err != nil {
		t.Fatalf("env token: %v", err)
	}
	if token.Token != "tok_env" {
		t.Fatalf("expected env token value, got %q", token.Token)
	}
	if !token.ExpiresOn.IsZero() {
		t.Fatalf("expected unknown expiry, got %v", token.ExpiresOn)
	}

	if _, err := (EnvToken{Var: "MISSING", Lookup: lookup}).GetToken(context.Background(), core.DatabaseScope); err == nil {
		t.Fatal("expected error for unset variable")
	}
}
