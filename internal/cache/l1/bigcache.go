package l1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"go.uber.org/zap"

	"go-media-cache/internal/config"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/metrics"
	"go-media-cache/internal/models"
	"go-media-cache/internal/scheduler"
)

const metricsInterval = 30 * time.Second

// Ensure BigCache implements interfaces.Store
var _ interfaces.TTLStore = (*BigCache)(nil)

// BigCache implements L1 cache using BigCache.
// BigCache evicts by a single life window, so each value is stored inside a
// models.CacheEntry envelope carrying its own expiry.
type BigCache struct {
	cache            *bigcache.BigCache
	logger           *zap.Logger
	metricsScheduler *scheduler.Scheduler
}

// NewBigCache creates a new BigCache instance
func NewBigCache(bigcacheCfg *config.BigCacheConfig, logger *zap.Logger) (*BigCache, error) {
	cfg := bigcache.DefaultConfig(bigcacheCfg.LifeWindow)
	cfg.HardMaxCacheSize = bigcacheCfg.Size // Size in MB
	cfg.Verbose = false
	cfg.MaxEntrySize = bigcacheCfg.MaxEntrySize

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigcache: %w", err)
	}

	bc := &BigCache{
		cache:  cache,
		logger: logger,
	}

	// Start periodic metrics collection
	bc.startMetricsCollection()

	return bc, nil
}

// Get retrieves a live value from cache
func (bc *BigCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, _, found, err := bc.GetWithTTL(ctx, key)
	return val, found, err
}

// GetWithTTL retrieves a live value and the time its envelope has left
func (bc *BigCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	data, err := bc.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return nil, 0, false, nil
		}
		metrics.RecordCacheError("l1", "read")
		return nil, 0, false, fmt.Errorf("l1 get: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		bc.logger.Warn("Failed to unmarshal L1 cache entry", zap.String("key", key), zap.Error(err))
		metrics.RecordCacheError("l1", "decode")
		_ = bc.cache.Delete(key) // Remove corrupted entry
		return nil, 0, false, nil
	}

	// Check if entry is expired
	if entry.IsExpired() {
		_ = bc.cache.Delete(key)
		return nil, 0, false, nil
	}

	return entry.Data, entry.Remaining(), true, nil
}

// Set stores value in cache with TTL
func (bc *BigCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	data, err := json.Marshal(models.NewCacheEntry(val, ttl))
	if err != nil {
		metrics.RecordCacheError("l1", "encode")
		return fmt.Errorf("l1 encode entry: %w", err)
	}

	if err := bc.cache.Set(key, data); err != nil {
		metrics.RecordCacheError("l1", "write")
		return fmt.Errorf("l1 set: %w", err)
	}
	return nil
}

// Delete removes entry from cache
func (bc *BigCache) Delete(ctx context.Context, key string) error {
	err := bc.cache.Delete(key)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		metrics.RecordCacheError("l1", "delete")
		return fmt.Errorf("l1 delete: %w", err)
	}
	return nil
}

// Close stops metrics collection and closes the cache
func (bc *BigCache) Close() error {
	bc.stopMetricsCollection()

	return bc.cache.Close()
}

// GetStats returns cache statistics for metrics
func (bc *BigCache) GetStats() (capacity, used int64) {
	// Capacity is the allocated shard memory in bytes; used approximates it by
	// the number of live entries, which is all bigcache exposes cheaply
	capacity = int64(bc.cache.Capacity())
	used = int64(bc.cache.Len())

	return capacity, used
}

// startMetricsCollection starts periodic metrics collection
func (bc *BigCache) startMetricsCollection() {
	bc.metricsScheduler = scheduler.New(metricsInterval, bc.updateMetrics)
	bc.metricsScheduler.Start()

	// Initial collection
	bc.updateMetrics()

	bc.logger.Debug("Started L1 cache metrics collection")
}

// stopMetricsCollection stops periodic metrics collection
func (bc *BigCache) stopMetricsCollection() {
	if bc.metricsScheduler != nil {
		bc.metricsScheduler.Stop()
		bc.logger.Debug("Stopped L1 cache metrics collection")
	}
}

// updateMetrics updates cache metrics
func (bc *BigCache) updateMetrics() {
	capacity, used := bc.GetStats()

	metrics.UpdateL1CacheCapacity(capacity, used)
	metrics.UpdateCacheKeys("l1", int64(bc.cache.Len()))
}
