package narrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/application/port"
	"github.com/aratrikkk/UrjaBharat/pkg/logger"
)

type memoryCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failGet {
		return errors.New("connection refused")
	}
	raw, ok := c.data[key]
	if !ok {
		return port.ErrCacheMiss
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("%w: %v", port.ErrCacheCorrupt, err)
	}
	return nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Close() error { return nil }

type countingNarrator struct {
	calls int
	err   error
}

func (n *countingNarrator) reply(text string) (string, error) {
	n.calls++
	if n.err != nil {
		return "", n.err
	}
	return text, nil
}

func (n *countingNarrator) Analyze(_ context.Context, d string) (string, error) {
	return n.reply("analysis of " + d)
}

func (n *countingNarrator) Diagnose(_ context.Context, s string) (string, error) {
	return n.reply("rca of " + s)
}

func (n *countingNarrator) Summarize(_ context.Context, s string) (string, error) {
	return n.reply("handover of " + s)
}

func (n *countingNarrator) Explain(_ context.Context, d, c string) (string, error) {
	return n.reply(c + "/" + d)
}

func TestCachedNarrator_HitAfterMiss(t *testing.T) {
	next := &countingNarrator{}
	n := NewCachedNarrator(next, newMemoryCache(), time.Minute, logger.New("error"))
	ctx := context.Background()

	first, err := n.Diagnose(ctx, "symptoms")
	if err != nil {
		t.Fatalf("Diagnose() error = %v", err)
	}
	second, _ := n.Diagnose(ctx, "symptoms")

	if first != second || next.calls != 1 {
		t.Fatalf("calls = %d, first = %q, second = %q", next.calls, first, second)
	}

	// same input, different kind
	if _, err := n.Summarize(ctx, "symptoms"); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}
}

func TestCachedNarrator_ErrorsNotCached(t *testing.T) {
	next := &countingNarrator{err: errors.New("quota")}
	n := NewCachedNarrator(next, newMemoryCache(), time.Minute, logger.New("error"))

	for i := 0; i < 2; i++ {
		if _, err := n.Analyze(context.Background(), "digest"); err == nil {
			t.Fatal("expected error")
		}
	}
	if next.calls != 2 {
		t.Fatalf("calls = %d, want 2", next.calls)
	}
}

func TestCachedNarrator_CacheFailureFallsThrough(t *testing.T) {
	cache := newMemoryCache()
	cache.failGet = true
	next := &countingNarrator{}
	n := NewCachedNarrator(next, cache, time.Minute, logger.New("error"))

	text, err := n.Explain(context.Background(), "desc", "ctx")
	if err != nil || text != "ctx/desc" {
		t.Fatalf("Explain() = %q, %v", text, err)
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("analysis", "x")
	if a != CacheKey("analysis", "x") {
		t.Error("key must be deterministic")
	}
	if a == CacheKey("diagnostic", "x") || a == CacheKey("analysis", "y") {
		t.Error("keys must differ by kind and input")
	}
}

func TestCachedNarrator_EvictsUnusableEntries(t *testing.T) {
	tests := []struct {
		name   string
		stored string
	}{
		{"undecodable", `{"not":"a string"}`},
		{"empty text", `""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := newMemoryCache()
			key := CacheKey("analysis", "digest")
			cache.data[key] = []byte(tt.stored)

			next := &countingNarrator{err: errors.New("upstream down")}
			n := NewCachedNarrator(next, cache, time.Minute, logger.New("error"))

			if _, err := n.Analyze(context.Background(), "digest"); err == nil {
				t.Fatal("expected upstream error")
			}
			if next.calls != 1 {
				t.Fatalf("expected upstream call, got %d", next.calls)
			}
			if _, ok := cache.data[key]; ok {
				t.Error("unusable entry must be evicted")
			}
		})
	}
}
