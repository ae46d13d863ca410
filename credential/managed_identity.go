package credential

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-entraauth/core"
)

const (
	defaultIMDSEndpoint = "http://169.254.169.254/metadata/identity/oauth2/token"
	imdsAPIVersion      = "2018-02-01"
)

// ManagedIdentityConfig configures token acquisition from the instance
// metadata service.
type ManagedIdentityConfig struct {
	// Endpoint overrides the IMDS token endpoint, mainly for tests.
	Endpoint string
	// ClientID selects a user-assigned identity; empty uses the
	// system-assigned one.
	ClientID       string
	HTTPClient     HTTPDoer
	RequestTimeout time.Duration
	Now            func() time.Time
}

// ManagedIdentity fetches tokens from the instance metadata service. IMDS
// identifies the target by resource URI, so the requested scope is translated
// by stripping its "/.default" suffix.
type ManagedIdentity struct {
	config ManagedIdentityConfig
}

func NewManagedIdentity(cfg ManagedIdentityConfig) (*ManagedIdentity, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultIMDSEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("credential: invalid IMDS endpoint: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &ManagedIdentity{
		config: ManagedIdentityConfig{
			Endpoint:       endpoint,
			ClientID:       strings.TrimSpace(cfg.ClientID),
			HTTPClient:     httpClient,
			RequestTimeout: requestTimeout,
			Now:            now,
		},
	}, nil
}

func (m *ManagedIdentity) GetToken(ctx context.Context, scope string) (core.AccessToken, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx := ctx
	cancel := func() {}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		requestCtx, cancel = context.WithTimeout(ctx, m.config.RequestTimeout)
	}
	defer cancel()

	query := url.Values{
		"api-version": []string{imdsAPIVersion},
		"resource":    []string{resourceFromScope(scope)},
	}
	if m.config.ClientID != "" {
		query.Set("client_id", m.config.ClientID)
	}
	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, m.config.Endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return core.AccessToken{}, err
	}
	req.Header.Set("Metadata", "true")
	req.Header.Set("Accept", "application/json")

	res, err := m.config.HTTPClient.Do(req)
	if err != nil {
		return core.AccessToken{}, err
	}

	var payload struct {
		AccessToken string          `json:"access_token"`
		ExpiresOn   json.RawMessage `json:"expires_on"`
	}
	if err := decodeTokenResponse(res, &payload); err != nil {
		return core.AccessToken{}, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.AccessToken{}, fmt.Errorf("credential: IMDS returned no access token")
	}

	token := core.AccessToken{Token: payload.AccessToken}
	if expiresOn, ok := parseUnixSeconds(payload.ExpiresOn); ok {
		token.ExpiresOn = expiresOn
	}
	return token, nil
}

func resourceFromScope(scope string) string {
	return strings.TrimSuffix(strings.TrimSpace(scope), "/.default")
}

// parseUnixSeconds handles the IMDS expires_on field, which is documented as
// a string but observed as a number on some platforms.
func parseUnixSeconds(raw json.RawMessage) (time.Time, bool) {
	trimmed := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if trimmed == "" || trimmed == "null" {
		return time.Time{}, false
	}
	seconds, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || seconds <= 0 {
		return time.Time{}, false
	}
	return time.Unix(seconds, 0).UTC(), true
}
