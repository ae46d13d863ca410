package credential

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

// Config describes the default credential chain: where a pre-issued token is
// read from, the client-secret grant settings, and the IMDS endpoint.
type Config struct {
	TokenEnvVar             string `koanf:"token_env_var" mapstructure:"token_env_var"`
	TenantID                string `koanf:"tenant_id" mapstructure:"tenant_id"`
	ClientID                string `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret            string `koanf:"client_secret" mapstructure:"client_secret"`
	AuthorityHost           string `koanf:"authority_host" mapstructure:"authority_host"`
	IMDSEndpoint            string `koanf:"imds_endpoint" mapstructure:"imds_endpoint"`
	ManagedIdentityClientID string `koanf:"managed_identity_client_id" mapstructure:"managed_identity_client_id"`
	RefreshWindowSeconds    int    `koanf:"refresh_window_seconds" mapstructure:"refresh_window_seconds"`
}

func DefaultConfig() Config {
	return Config{
		TokenEnvVar:          DefaultTokenEnvVar,
		AuthorityHost:        defaultAuthorityHost,
		IMDSEndpoint:         defaultIMDSEndpoint,
		RefreshWindowSeconds: int(DefaultRefreshWindow.Seconds()),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.TokenEnvVar) == "" {
		return fmt.Errorf("credential: token_env_var is required")
	}
	if c.RefreshWindowSeconds < 0 {
		return fmt.Errorf("credential: refresh_window_seconds must not be negative")
	}
	if c.hasPartialClientSecret() {
		return fmt.Errorf("credential: tenant_id, client_id, and client_secret must be set together")
	}
	return nil
}

// HasClientSecret reports whether the client-credentials grant is fully
// configured.
func (c Config) HasClientSecret() bool {
	return strings.TrimSpace(c.TenantID) != "" &&
		strings.TrimSpace(c.ClientID) != "" &&
		strings.TrimSpace(c.ClientSecret) != ""
}

func (c Config) hasPartialClientSecret() bool {
	set := 0
	for _, value := range []string{c.TenantID, c.ClientID, c.ClientSecret} {
		if strings.TrimSpace(value) != "" {
			set++
		}
	}
	return set > 0 && set < 3
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

// EnvRawLoader maps the conventional AZURE_* environment variables onto raw
// config keys.
type EnvRawLoader struct {
	// Lookup overrides os.LookupEnv, mainly for tests.
	Lookup func(key string) (string, bool)
}

var envConfigKeys = map[string]string{
	"AZURE_TENANT_ID":                  "tenant_id",
	"AZURE_CLIENT_ID":                  "client_id",
	"AZURE_CLIENT_SECRET":              "client_secret",
	"AZURE_AUTHORITY_HOST":             "authority_host",
	"AZURE_IMDS_ENDPOINT":              "imds_endpoint",
	"AZURE_MANAGED_IDENTITY_CLIENT_ID": "managed_identity_client_id",
	"AZURE_TOKEN_ENV_VAR":              "token_env_var",
	"AZURE_TOKEN_REFRESH_WINDOW":       "refresh_window_seconds",
}

func (l EnvRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	raw := map[string]any{}
	for envVar, key := range envConfigKeys {
		value, ok := lookup(envVar)
		value = strings.TrimSpace(value)
		if !ok || value == "" {
			continue
		}
		if key == "refresh_window_seconds" {
			seconds, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("credential: %s must be an integer number of seconds: %w", envVar, err)
			}
			raw[key] = seconds
			continue
		}
		raw[key] = value
	}
	return raw, nil
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// CfgxConfigProvider builds a validated Config from a raw key map layered on
// defaults.
type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

// GoOptionsResolver merges defaults, loaded config, and runtime overrides with
// deterministic precedence (runtime highest).
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("credential: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("credential: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	include := func(key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = value
		}
	}
	include("token_env_var", cfg.TokenEnvVar)
	include("tenant_id", cfg.TenantID)
	include("client_id", cfg.ClientID)
	include("client_secret", cfg.ClientSecret)
	include("authority_host", cfg.AuthorityHost)
	include("imds_endpoint", cfg.IMDSEndpoint)
	include("managed_identity_client_id", cfg.ManagedIdentityClientID)
	if includeZero || cfg.RefreshWindowSeconds > 0 {
		layer["refresh_window_seconds"] = cfg.RefreshWindowSeconds
	}
	return layer
}
