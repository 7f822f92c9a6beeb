package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gisdesk/ticket-agent/internal/utils"
)

// Cache stores model replies keyed by prompt hash.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type cacheEntry struct {
	value string
	exp   time.Time
}

// MemoryCache is a process-local TTL map.
type MemoryCache struct {
	mu    sync.Mutex
	store map[string]cacheEntry
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{store: map[string]cacheEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.store[key]; ok {
		if c.now().Before(e.exp) {
			return e.value, true, nil
		}
		delete(c.store, key)
	}
	return "", false, nil
}

// Set also drops every expired entry so keys that are never read again do
// not accumulate.
func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.store {
		if !now.Before(e.exp) {
			delete(c.store, k)
		}
	}
	c.store[key] = cacheEntry{value: value, exp: now.Add(ttl)}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.store)
}

// RedisCache shares replies between server replicas.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts), prefix: "ticket-agent:reply:"}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

// CachedCompleter serves repeated prompts from a cache. Cache errors are
// logged and treated as misses. Only replies that parse as a suggestion are
// stored, so a malformed answer is retried on the next call.
type CachedCompleter struct {
	next   Completer
	cache  Cache
	ttl    time.Duration
	log    zerolog.Logger
	accept func(reply string) bool
}

func NewCachedCompleter(next Completer, cache Cache, ttl time.Duration, log zerolog.Logger) *CachedCompleter {
	return &CachedCompleter{next: next, cache: cache, ttl: ttl, log: log, accept: parseable}
}

func parseable(reply string) bool {
	_, err := ParseSuggestion(reply)
	return err == nil
}

func (c *CachedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	key := PromptKey(systemPrompt, userPrompt)
	if v, ok, err := c.cache.Get(ctx, key); err != nil {
		c.log.Warn().Err(err).Msg("reply cache read failed")
	} else if ok {
		return v, nil
	}

	answer, err := c.next.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", err
	}
	if !c.accept(answer) {
		c.log.Debug().Str("key", key).Msg("reply not cached: unparseable")
		return answer, nil
	}
	if err := c.cache.Set(ctx, key, answer, c.ttl); err != nil {
		c.log.Warn().Err(err).Msg("reply cache write failed")
	}
	return answer, nil
}

func PromptKey(systemPrompt, userPrompt string) string {
	return utils.HashKey(systemPrompt, userPrompt)
}
