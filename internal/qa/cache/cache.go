// internal/qa/cache/cache.go

// Package cache implements the response cache that short-circuits the whole
// pipeline on a hit. Keys are deterministic fingerprints of the normalized
// query plus parameters; values are serialized QAResponse blobs with TTL
// expiry owned by Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	stderrors "newsqa/internal/common/errors"
	"newsqa/internal/common/logger"
	"newsqa/internal/models"
)

const keyLength = 32

type Config struct {
	Prefix string
	TTL    time.Duration
}

// ResponseCache is the redis-backed fingerprint → QAResponse store.
type ResponseCache struct {
	client *redis.Client
	config *Config
	logger logger.Logger
}

func New(client *redis.Client, config *Config, log logger.Logger) *ResponseCache {
	return &ResponseCache{
		client: client,
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "response-cache"}),
	}
}

// GenerateKey computes the deterministic fingerprint for a query and its
// parameters. The query is normalized and parameters are serialized in
// stable key order, so equivalent requests always collide.
func (c *ResponseCache) GenerateKey(query string, params map[string]interface{}) string {
	normalized := strings.ToLower(strings.TrimSpace(query))

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(normalized)
	for _, k := range keys {
		serialized, _ := json.Marshal(params[k])
		fmt.Fprintf(&b, "|%s=%s", k, serialized)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s:%s", c.config.Prefix, hex.EncodeToString(sum[:])[:keyLength])
}

// Get returns the cached response for a key, or ok=false on miss. Cache
// errors are reported as misses; the caller recomputes.
func (c *ResponseCache) Get(ctx context.Context, key string) (*models.QAResponse, bool) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("cache get failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
			"code":  string(stderrors.ErrCodeCacheUnavailable),
		})
		return nil, false
	}

	var response models.QAResponse
	if err := json.Unmarshal([]byte(val), &response); err != nil {
		c.logger.Warn("cache entry corrupted, dropping", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		_ = c.client.Del(ctx, key).Err()
		return nil, false
	}

	return &response, true
}

// Set stores a response under key with the given TTL (zero uses the
// configured default).
func (c *ResponseCache) Set(ctx context.Context, key string, response *models.QAResponse, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.TTL
	}

	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete removes a key.
func (c *ResponseCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Exists reports whether a key is present.
func (c *ResponseCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear removes every key in this cache's namespace.
func (c *ResponseCache) Clear(ctx context.Context) error {
	var cursor uint64
	pattern := c.config.Prefix + ":*"

	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("del: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
