package credential

import (
	"context"
	"time"

	"github.com/goliatone/go-entraauth/core"
)

type defaultChainBuilder struct {
	runtimeConfig   Config
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	httpClient      HTTPDoer
	logger          core.Logger
}

type DefaultChainOption func(*defaultChainBuilder)

// WithRuntimeConfig overrides loaded configuration with the highest
// precedence.
func WithRuntimeConfig(cfg Config) DefaultChainOption {
	return func(b *defaultChainBuilder) {
		b.runtimeConfig = cfg
	}
}

func WithConfigProvider(provider ConfigProvider) DefaultChainOption {
	return func(b *defaultChainBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) DefaultChainOption {
	return func(b *defaultChainBuilder) {
		b.optionsResolver = resolver
	}
}

func WithHTTPClient(client HTTPDoer) DefaultChainOption {
	return func(b *defaultChainBuilder) {
		b.httpClient = client
	}
}

func WithLogger(logger core.Logger) DefaultChainOption {
	return func(b *defaultChainBuilder) {
		b.logger = logger
	}
}

// NewDefaultChain builds the platform-default credential: a pre-issued token
// from the environment, then the client-credentials grant when fully
// configured, then IMDS managed identity, all behind the caching decorator.
// Configuration is resolved from defaults, the AZURE_* environment, and any
// runtime overrides, in that precedence order.
func NewDefaultChain(ctx context.Context, options ...DefaultChainOption) (core.TokenCredential, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	builder := defaultChainBuilder{
		configProvider:  NewCfgxConfigProvider(EnvRawLoader{}),
		optionsResolver: GoOptionsResolver{},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(ctx, defaults)
	if err != nil {
		return nil, err
	}
	cfg, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, err
	}

	sources := []core.TokenCredential{
		EnvToken{Var: cfg.TokenEnvVar},
	}
	if cfg.HasClientSecret() {
		clientSecret, err := NewClientSecret(ClientSecretConfig{
			TenantID:      cfg.TenantID,
			ClientID:      cfg.ClientID,
			ClientSecret:  cfg.ClientSecret,
			AuthorityHost: cfg.AuthorityHost,
			HTTPClient:    builder.httpClient,
		})
		if err != nil {
			return nil, err
		}
		sources = append(sources, clientSecret)
	}
	managedIdentity, err := NewManagedIdentity(ManagedIdentityConfig{
		Endpoint:   cfg.IMDSEndpoint,
		ClientID:   cfg.ManagedIdentityClientID,
		HTTPClient: builder.httpClient,
	})
	if err != nil {
		return nil, err
	}
	sources = append(sources, managedIdentity)

	chain, err := NewChain(sources, WithChainLogger(builder.logger))
	if err != nil {
		return nil, err
	}
	return NewCached(chain, WithRefreshWindow(time.Duration(cfg.RefreshWindowSeconds)*time.Second))
}
