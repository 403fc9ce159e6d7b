package narrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

const cacheKeyPrefix = "narrative:"

// CachedNarrator decorates a port.Narrator with a response cache keyed on
// (kind, input). Only successful responses are cached; cache failures never
// fail the call.
type CachedNarrator struct {
	next   port.Narrator
	cache  port.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedNarrator wraps next with cache.
func NewCachedNarrator(next port.Narrator, cache port.Cache, ttl time.Duration, log *logger.Logger) *CachedNarrator {
	return &CachedNarrator{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log,
	}
}

func (n *CachedNarrator) Analyze(ctx context.Context, trendDigest string) (string, error) {
	return n.cached(ctx, "analysis", trendDigest, func() (string, error) {
		return n.next.Analyze(ctx, trendDigest)
	})
}

func (n *CachedNarrator) Diagnose(ctx context.Context, symptoms string) (string, error) {
	return n.cached(ctx, "diagnostic", symptoms, func() (string, error) {
		return n.next.Diagnose(ctx, symptoms)
	})
}

func (n *CachedNarrator) Summarize(ctx context.Context, dataSummary string) (string, error) {
	return n.cached(ctx, "handover", dataSummary, func() (string, error) {
		return n.next.Summarize(ctx, dataSummary)
	})
}

func (n *CachedNarrator) Explain(ctx context.Context, description, plantContext string) (string, error) {
	return n.cached(ctx, "explanation", plantContext+"\x00"+description, func() (string, error) {
		return n.next.Explain(ctx, description, plantContext)
	})
}

func (n *CachedNarrator) cached(ctx context.Context, kind, input string, call func() (string, error)) (string, error) {
	key := CacheKey(kind, input)

	var text string
	err := n.cache.Get(ctx, key, &text)
	switch {
	case err == nil && text != "":
		n.logger.Debug("Narrative cache hit", "kind", kind)
		return text, nil
	case err == nil, errors.Is(err, port.ErrCacheCorrupt):
		// undecodable or empty entry
		n.evict(ctx, kind, key)
	case !errors.Is(err, port.ErrCacheMiss):
		n.logger.Warn("Narrative cache read failed", "kind", kind, "error", err.Error())
	}

	text, err = call()
	if err != nil {
		return "", err
	}

	if setErr := n.cache.Set(ctx, key, text, n.ttl); setErr != nil {
		n.logger.Warn("Narrative cache write failed", "kind", kind, "error", setErr.Error())
	}
	return text, nil
}

func (n *CachedNarrator) evict(ctx context.Context, kind, key string) {
	n.logger.Warn("Evicting unusable narrative cache entry", "kind", kind)
	if err := n.cache.Delete(ctx, key); err != nil {
		n.logger.Warn("Narrative cache eviction failed", "kind", kind, "error", err.Error())
	}
}

// CacheKey builds the cache key for a narrative request.
func CacheKey(kind, input string) string {
	sum := sha256.Sum256([]byte(input))
	return cacheKeyPrefix + kind + ":" + hex.EncodeToString(sum[:])
}
