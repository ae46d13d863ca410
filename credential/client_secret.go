package credential

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-entraauth/core"
)

const defaultAuthorityHost = "https://login.microsoftonline.com"

// ClientSecretConfig configures the OAuth2 client-credentials grant against a
// tenant token endpoint.
type ClientSecretConfig struct {
	TenantID      string
	ClientID      string
	ClientSecret  string
	AuthorityHost string
	HTTPClient    HTTPDoer
	// RequestTimeout bounds each token request when the caller's context does
	// not already carry a deadline.
	RequestTimeout time.Duration
	Now            func() time.Time
}

// ClientSecret fetches tokens with the client-credentials grant. It performs
// no caching of its own; wrap it in Cached for that.
type ClientSecret struct {
	config ClientSecretConfig
}

func NewClientSecret(cfg ClientSecretConfig) (*ClientSecret, error) {
	tenantID := strings.TrimSpace(cfg.TenantID)
	clientID := strings.TrimSpace(cfg.ClientID)
	clientSecret := strings.TrimSpace(cfg.ClientSecret)
	if tenantID == "" {
		return nil, fmt.Errorf("credential: client secret tenant_id is required")
	}
	if clientID == "" {
		return nil, fmt.Errorf("credential: client secret client_id is required")
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("credential: client secret value is required")
	}

	authorityHost := strings.TrimRight(strings.TrimSpace(cfg.AuthorityHost), "/")
	if authorityHost == "" {
		authorityHost = defaultAuthorityHost
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

	return &ClientSecret{
		config: ClientSecretConfig{
			TenantID:       tenantID,
			ClientID:       clientID,
			ClientSecret:   clientSecret,
			AuthorityHost:  authorityHost,
			HTTPClient:     httpClient,
			RequestTimeout: requestTimeout,
			Now:            now,
		},
	}, nil
}

func (c *ClientSecret) GetToken(ctx context.Context, scope string) (core.AccessToken, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	requestCtx := ctx
	cancel := func() {}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		requestCtx, cancel = context.WithTimeout(ctx, c.config.RequestTimeout)
	}
	defer cancel()

	form := url.Values{
		"grant_type":    []string{"client_credentials"},
		"client_id":     []string{c.config.ClientID},
		"client_secret": []string{c.config.ClientSecret},
		"scope":         []string{strings.TrimSpace(scope)},
	}
	endpoint := c.config.AuthorityHost + "/" + c.config.TenantID + "/oauth2/v2.0/token"
	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return core.AccessToken{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return core.AccessToken{}, err
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := decodeTokenResponse(res, &payload); err != nil {
		return core.AccessToken{}, err
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.AccessToken{}, fmt.Errorf("credential: token endpoint returned no access token")
	}

	token := core.AccessToken{Token: payload.AccessToken}
	if payload.ExpiresIn > 0 {
		token.ExpiresOn = c.config.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return token, nil
}
