package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/conduit-ucpi/walletauth/core"
)

const tokenCacheKeyPrefix = "walletauth::session_token::v1"

// CachedTokenStore fronts a durable token store with a read-through cache.
// Revalidation probes the token on every run; the cache keeps those reads
// off the database between writes.
type CachedTokenStore struct {
	base  core.TokenStore
	cache repositorycache.CacheService
	slot  string
}

func NewCachedTokenStore(base core.TokenStore, cacheService repositorycache.CacheService) (*CachedTokenStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base token store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: token cache service is required")
	}
	slot := defaultTokenSlot
	if slotted, ok := base.(interface{ Slot() string }); ok {
		if value := strings.TrimSpace(slotted.Slot()); value != "" {
			slot = value
		}
	}
	return &CachedTokenStore{base: base, cache: cacheService, slot: slot}, nil
}

// TokenCacheKey returns the deterministic cache key for token reads:
// walletauth::session_token::v1::<slot> with the slot URL-path escaped.
func TokenCacheKey(slot string) string {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		slot = defaultTokenSlot
	}
	return tokenCacheKeyPrefix + "::" + url.PathEscape(slot)
}

func (s *CachedTokenStore) SetToken(ctx context.Context, token string) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached token store is not configured")
	}
	if err := s.base.SetToken(ctx, token); err != nil {
		return err
	}
	return s.cache.Delete(ctx, TokenCacheKey(s.slot))
}

func (s *CachedTokenStore) GetToken(ctx context.Context) (string, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return "", fmt.Errorf("sqlstore: cached token store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, TokenCacheKey(s.slot), func(ctx context.Context) (string, error) {
		return s.base.GetToken(ctx)
	})
}

func (s *CachedTokenStore) ClearToken(ctx context.Context) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached token store is not configured")
	}
	if err := s.base.ClearToken(ctx); err != nil {
		return err
	}
	return s.cache.Delete(ctx, TokenCacheKey(s.slot))
}
