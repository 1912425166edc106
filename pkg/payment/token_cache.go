package payment

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// TokenFetcher is satisfied by *Authenticator.
type TokenFetcher interface {
	FetchToken(ctx context.Context) (AuthToken, error)
}

// TokenCache holds at most one token. Concurrent callers that find it stale
// share a single in-flight refresh.
type TokenCache struct {
	fetcher TokenFetcher
	ttl     time.Duration
	margin  time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	token AuthToken
	sf    singleflight.Group
}

func NewTokenCache(fetcher TokenFetcher, ttl, margin time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = 25 * time.Minute
	}
	if margin < 0 || margin >= ttl {
		margin = 0
	}
	return &TokenCache{fetcher: fetcher, ttl: ttl, margin: margin, now: time.Now}
}

// WithClock replaces the time source. Tests only.
func (c *TokenCache) WithClock(now func() time.Time) *TokenCache {
	c.now = now
	return c
}

// Token returns the cached token while it is valid, otherwise fetches a new one.
func (c *TokenCache) Token(ctx context.Context) (AuthToken, error) {
	c.mu.RLock()
	tok := c.token
	c.mu.RUnlock()
	if tok.Valid(c.now(), c.margin) {
		return tok, nil
	}
	v, err, _ := c.sf.Do("token", func() (interface{}, error) {
		// a refresh may have landed between the check above and this call
		c.mu.RLock()
		cur := c.token
		c.mu.RUnlock()
		if cur.Valid(c.now(), c.margin) {
			return cur, nil
		}
		// outlives any single waiter
		fresh, err := c.fetcher.FetchToken(context.WithoutCancel(ctx))
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.token = AuthToken{}
			return AuthToken{}, err
		}
		fresh.ExpiresAt = c.now().Add(c.ttl)
		c.token = fresh
		return fresh, nil
	})
	if err != nil {
		return AuthToken{}, err
	}
	return v.(AuthToken), nil
}

// Invalidate drops the cached token so the next call refetches.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = AuthToken{}
	c.mu.Unlock()
}
