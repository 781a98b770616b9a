package l2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"go-media-cache/internal/config"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/metrics"
	"go-media-cache/internal/models"
)

// Ensure KeyDBCache implements interfaces.Store
var _ interfaces.TTLStore = (*KeyDBCache)(nil)

// KeyDBCache implements L2 cache using Redis/KeyDB
type KeyDBCache struct {
	client interfaces.KeyDbClient
	config *config.KeyDBConfig
	logger *zap.Logger
}

// NewKeyDBCache creates a new KeyDBCache instance with provided client
func NewKeyDBCache(cfg *config.KeyDBConfig, client interfaces.KeyDbClient, logger *zap.Logger) *KeyDBCache {
	return &KeyDBCache{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Get retrieves value from KeyDB. redis.Nil is a miss, not an error.
// Command failures are counted by the client hook, not here.
func (kc *KeyDBCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, _, found, err := kc.GetWithTTL(ctx, key)
	return val, found, err
}

// GetWithTTL retrieves value from KeyDB and the time its envelope has left
func (kc *KeyDBCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetReadTimeout())
	defer cancel()

	data, err := kc.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, false, nil
		}
		return nil, 0, false, fmt.Errorf("l2 get: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		kc.logger.Warn("Failed to unmarshal L2 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l2", "decode")
		kc.deleteQuietly(key)
		return nil, 0, false, nil
	}

	// Redis expires keys itself; the envelope check covers clock skew between writers
	if entry.IsExpired() {
		kc.deleteQuietly(key)
		return nil, 0, false, nil
	}

	return entry.Data, entry.Remaining(), true, nil
}

// Set stores value in KeyDB with the TTL as native key expiry
func (kc *KeyDBCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	data, err := json.Marshal(models.NewCacheEntry(val, ttl))
	if err != nil {
		metrics.RecordCacheError("l2", "encode")
		return fmt.Errorf("l2 encode entry: %w", err)
	}

	if err := kc.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("l2 set: %w", err)
	}
	return nil
}

// Delete removes entry from KeyDB
func (kc *KeyDBCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("l2 delete: %w", err)
	}
	return nil
}

// Close closes the KeyDB connection
func (kc *KeyDBCache) Close() error {
	return kc.client.Close()
}

func (kc *KeyDBCache) deleteQuietly(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), kc.config.GetSendTimeout())
	defer cancel()

	if err := kc.client.Del(ctx, key).Err(); err != nil {
		kc.logger.Debug("Failed to drop unusable L2 entry", zap.String("key", key), zap.Error(err))
	}
}
