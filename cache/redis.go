package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a LanguageCache shared through Redis. All keys live under a
// session namespace so that engines of one session share translations and a
// new session starts empty.
//
// Layout:
//
//	<prefix><session>:lang:<lang>  hash of key -> translation
//	<prefix><session>:langs        set of languages that have run
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	session   string
	timeout   time.Duration
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       time.Duration // Lifetime of the session keys (0 = no expiration)
	KeyPrefix string        // Prefix for all keys (default: "livetl:")
	Session   string        // Session namespace (default: a random UUID)
}

const (
	defaultKeyPrefix = "livetl:"
	opTimeout        = 2 * time.Second
)

// NewRedisCache connects to Redis and returns a cache for one session.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewRedisCacheFromClient(client, cfg.Session, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing client. An
// empty session gets a random namespace.
func NewRedisCacheFromClient(client *redis.Client, session string, ttl time.Duration, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	if session == "" {
		session = uuid.NewString()
	}
	if ttl < 0 {
		ttl = 0
	}

	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		session:   session,
		timeout:   opTimeout,
	}
}

// Client returns the underlying client, for sharing the connection.
func (c *RedisCache) Client() *redis.Client {
	return c.client
}

// Session returns the namespace of this cache.
func (c *RedisCache) Session() string {
	return c.session
}

func (c *RedisCache) langKey(lang string) string {
	return c.keyPrefix + c.session + ":lang:" + lang
}

func (c *RedisCache) langsKey() string {
	return c.keyPrefix + c.session + ":langs"
}

func (c *RedisCache) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

// Get retrieves a translation. Redis errors are reported as a miss so the
// key is fetched again.
func (c *RedisCache) Get(lang, key string) (string, bool) {
	ctx, cancel := c.ctx()
	defer cancel()

	val, err := c.client.HGet(ctx, c.langKey(lang), key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Put stores a translation and records lang as run.
func (c *RedisCache) Put(lang, key, translation string) error {
	ctx, cancel := c.ctx()
	defer cancel()

	hash := c.langKey(lang)
	if err := c.client.HSet(ctx, hash, key, translation).Err(); err != nil {
		return fmt.Errorf("storing translation: %w", err)
	}
	if err := c.client.SAdd(ctx, c.langsKey(), lang).Err(); err != nil {
		return fmt.Errorf("recording language: %w", err)
	}

	if c.ttl > 0 {
		if err := c.client.Expire(ctx, hash, c.ttl).Err(); err != nil {
			return fmt.Errorf("setting ttl: %w", err)
		}
		if err := c.client.Expire(ctx, c.langsKey(), c.ttl).Err(); err != nil {
			return fmt.Errorf("setting ttl: %w", err)
		}
	}
	return nil
}

// HasRun reports whether lang is in the session's language set.
func (c *RedisCache) HasRun(lang string) bool {
	ctx, cancel := c.ctx()
	defer cancel()

	ok, err := c.client.SIsMember(ctx, c.langsKey(), lang).Result()
	return err == nil && ok
}

// Snapshot reads every language hash of the session.
func (c *RedisCache) Snapshot() (map[string]map[string]string, error) {
	ctx, cancel := c.ctx()
	defer cancel()

	langs, err := c.client.SMembers(ctx, c.langsKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("listing languages: %w", err)
	}

	out := make(map[string]map[string]string, len(langs))
	for _, lang := range langs {
		entries, err := c.client.HGetAll(ctx, c.langKey(lang)).Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", lang, err)
		}
		out[lang] = entries
	}
	return out, nil
}

// Clear deletes every key of the session.
func (c *RedisCache) Clear() error {
	ctx, cancel := c.ctx()
	defer cancel()

	langs, err := c.client.SMembers(ctx, c.langsKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("listing languages: %w", err)
	}

	keys := make([]string, 0, len(langs)+1)
	for _, lang := range langs {
		keys = append(keys, c.langKey(lang))
	}
	keys = append(keys, c.langsKey())

	return c.client.Del(ctx, keys...).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping() error {
	ctx, cancel := c.ctx()
	defer cancel()
	return c.client.Ping(ctx).Err()
}

var (
	_ LanguageCache = (*RedisCache)(nil)
	_ Snapshotter   = (*RedisCache)(nil)
)
