package credential

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-entraauth/core"
)

// DefaultRefreshWindow is how long before expiry a cached token stops being
// served and a fresh one is fetched.
const DefaultRefreshWindow = 2 * time.Minute

type CachedOption func(*Cached)

func WithRefreshWindow(window time.Duration) CachedOption {
	return func(c *Cached) {
		if c == nil || window <= 0 {
			return
		}
		c.window = window
	}
}

func WithNowFunc(now func() time.Time) CachedOption {
	return func(c *Cached) {
		if c == nil || now == nil {
			return
		}
		c.now = now
	}
}

// Cached decorates a token source with per-scope caching. Tokens without a
// known expiry are never retained. This decorator is where refresh policy
// lives; consumers of the credential still request a token per use.
type Cached struct {
	source core.TokenCredential
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	tokens map[string]core.AccessToken
}

func NewCached(source core.TokenCredential, opts ...CachedOption) (*Cached, error) {
	if source == nil {
		return nil, fmt.Errorf("credential: cached decorator requires a source")
	}
	cached := &Cached{
		source: source,
		window: DefaultRefreshWindow,
		now:    func() time.Time { return time.Now().UTC() },
		tokens: map[string]core.AccessToken{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(cached)
	}
	return cached, nil
}

func (c *Cached) GetToken(ctx context.Context, scope string) (core.AccessToken, error) {
	key := strings.TrimSpace(scope)
	if token, ok := c.lookup(key); ok {
		return token, nil
	}

	token, err := c.source.GetToken(ctx, scope)
	if err != nil {
		return core.AccessToken{}, err
	}
	c.store(key, token)
	return token, nil
}

func (c *Cached) lookup(scope string) (core.AccessToken, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	token, ok := c.tokens[scope]
	if !ok || token.ExpiresOn.IsZero() {
		return core.AccessToken{}, false
	}
	if !token.ExpiresOn.After(c.now().Add(c.window)) {
		delete(c.tokens, scope)
		return core.AccessToken{}, false
	}
	return token, true
}

func (c *Cached) store(scope string, token core.AccessToken) {
	if token.ExpiresOn.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[scope] = token
}
