package credential

import (
	"context"
	"errors"
	"fmt"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-entraauth/core"
)

// Chain tries each source in order and returns the first token produced.
// Sources later in the chain are only consulted after earlier ones fail; a
// context cancellation stops the walk immediately.
type Chain struct {
	sources []core.TokenCredential
	logger  core.Logger
}

type ChainOption func(*Chain)

func WithChainLogger(logger core.Logger) ChainOption {
	return func(c *Chain) {
		if c == nil {
			return
		}
		c.logger = logger
	}
}

func NewChain(sources []core.TokenCredential, opts ...ChainOption) (*Chain, error) {
	filtered := make([]core.TokenCredential, 0, len(sources))
	for _, source := range sources {
		if source == nil {
			continue
		}
		filtered = append(filtered, source)
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("credential: chain requires at least one source")
	}

	chain := &Chain{sources: filtered}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(chain)
	}
	if chain.logger == nil {
		chain.logger = glog.Nop()
	}
	return chain, nil
}

func (c *Chain) GetToken(ctx context.Context, scope string) (core.AccessToken, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	failures := make([]error, 0, len(c.sources))
	for index, source := range c.sources {
		token, err := source.GetToken(ctx, scope)
		if err == nil {
			return token, nil
		}
		if ctx.Err() != nil {
			return core.AccessToken{}, err
		}
		c.logger.Debug("credential chain source failed", "index", index, "error", err.Error())
		failures = append(failures, err)
	}
	return core.AccessToken{}, fmt.Errorf("credential: all chain sources failed: %w", errors.Join(failures...))
}
