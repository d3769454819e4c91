package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	identityTTL       = time.Hour
	identityKeyPrefix = "rotor-shift-bot:identity:"
)

// DomainLookup resolves a chat user id to their profile domain through the
// chat platform API.
type DomainLookup interface {
	UserDomain(ctx context.Context, userID int64) (string, error)
}

// IdentityCache caches resolved profile domains per user in Redis. Every
// entry carries its own TTL, so refreshing one user never extends the
// lifetime of another user's entry. Entries fill in one by one on misses,
// the cache is never bulk-replaced.
type IdentityCache struct {
	kv     KVStore
	lookup DomainLookup
	logger *zap.Logger
}

// NewIdentityCache creates an identity cache over the given KV backend and
// platform lookup.
func NewIdentityCache(kv KVStore, lookup DomainLookup, logger *zap.Logger) *IdentityCache {
	return &IdentityCache{
		kv:     kv,
		lookup: lookup,
		logger: logger,
	}
}

// Domain returns the cached profile domain of the user, performing a single
// external lookup on a miss. An empty domain is a valid, cacheable answer.
// KV backend failures degrade to a direct lookup; lookup failures propagate.
func (c *IdentityCache) Domain(ctx context.Context, userID int64) (string, error) {
	key := identityKeyPrefix + strconv.FormatInt(userID, 10)

	cached, err := c.kv.Get(ctx, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Identity cache read failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	domain, err := c.lookup.UserDomain(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve user domain: %w", err)
	}

	if err := c.kv.Set(ctx, key, domain, identityTTL); err != nil {
		c.logger.Warn("Identity cache write failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
	}

	return domain, nil
}
