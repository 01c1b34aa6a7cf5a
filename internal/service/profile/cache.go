package profile

import (
	"context"
	"time"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	applog "github.com/janisto/ols-profile-service/internal/platform/logging"
)

const cacheKeyPrefix = "profile:"

// Cache is the key-value port used by the read cache.
type Cache interface {
	SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get reports found=false for a missing key.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Del(ctx context.Context, key string) error
	// TTL returns the remaining lifetime, or a value <= 0 when the key is absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// cacheEncMode keeps nanosecond timestamps; the cbor default is whole seconds.
var cacheEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func encodeProfile(p *Profile) ([]byte, error) {
	return cacheEncMode.Marshal(toDocument(p))
}

func decodeProfile(data []byte) (*Profile, error) {
	var doc document
	if err := cbor.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.toProfile(), nil
}

// CachedBackend decorates a canonical Backend with a cache-aside read path.
//
// Entries are written only on a read miss and purged on every update and
// delete, never patched. Reads of absent records are not cached. Create,
// List, Exists, HasConflict and Get go straight to the canonical store.
type CachedBackend struct {
	Backend
	cache Cache
	ttl   time.Duration
}

// NewCachedBackend wraps backend with cache. ttl must be positive.
func NewCachedBackend(backend Backend, cache Cache, ttl time.Duration) *CachedBackend {
	return &CachedBackend{Backend: backend, cache: cache, ttl: ttl}
}

// Read serves a single record through the cache.
func (c *CachedBackend) Read(ctx context.Context, id, ifNoneMatch string) (ReadResult, error) {
	key := cacheKey(id)

	ttl, err := c.cache.TTL(ctx, key)
	if err != nil {
		return ReadResult{}, backendError(msgCacheTTL, err)
	}
	// No remaining lifetime means absent, even if a value is still stored.
	if ttl > 0 {
		if res, ok, err := c.readCached(ctx, key, id, ifNoneMatch, ttl); err != nil || ok {
			return res, err
		}
	}

	p, found, err := c.Backend.Get(ctx, id)
	if err != nil {
		return ReadResult{}, err
	}
	if !found {
		return ReadResult{Cache: CacheMiss}, nil
	}

	encoded, err := encodeProfile(p)
	if err != nil {
		return ReadResult{}, backendError(msgCacheSet, err)
	}
	if err := c.cache.SetEX(ctx, key, encoded, c.ttl); err != nil {
		return ReadResult{}, backendError(msgCacheSet, err)
	}
	return ReadResult{Profile: p, Found: true, Cache: CacheMiss, TTL: c.ttl}, nil
}

// readCached answers from a live cache entry. ok is false when the caller
// must read through to the store.
func (c *CachedBackend) readCached(ctx context.Context, key, id, ifNoneMatch string, ttl time.Duration) (ReadResult, bool, error) {
	if MatchesETag(ifNoneMatch, id) {
		return ReadResult{Found: true, NotModified: true, Cache: CacheHit, TTL: ttl}, true, nil
	}

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		return ReadResult{}, false, backendError(msgCacheGet, err)
	}
	if !ok {
		return ReadResult{}, false, nil
	}
	p, err := decodeProfile(data)
	if err == nil {
		return ReadResult{Profile: p, Found: true, Cache: CacheHit, TTL: ttl}, true, nil
	}
	applog.LogWarn(ctx, "discarding undecodable cache entry",
		zap.String("key", key), zap.Error(err))
	if err := c.cache.Del(ctx, key); err != nil {
		return ReadResult{}, false, backendError(msgCacheDelete, err)
	}
	return ReadResult{}, false, nil
}

// Update writes the canonical store first and then purges the cache entry.
func (c *CachedBackend) Update(ctx context.Context, id string, params UpdateParams) error {
	if err := c.Backend.Update(ctx, id, params); err != nil {
		return err
	}
	if err := c.cache.Del(ctx, cacheKey(id)); err != nil {
		return backendError(msgCacheDelete, err)
	}
	return nil
}

// Delete purges the cache entry before removing the canonical record.
func (c *CachedBackend) Delete(ctx context.Context, id string) error {
	if err := c.cache.Del(ctx, cacheKey(id)); err != nil {
		return backendError(msgCacheDelete, err)
	}
	return c.Backend.Delete(ctx, id)
}

// Compile-time interface checks
var (
	_ Backend = (*CachedBackend)(nil)
	_ Reader  = (*CachedBackend)(nil)
)
