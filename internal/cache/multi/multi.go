package multi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/metrics"
	"go-media-cache/internal/models"
)

// Ensure MultiStore implements interfaces.LevelAwareStore
var _ interfaces.LevelAwareStore = (*MultiStore)(nil)

// Level is a named store inside a MultiStore
type Level struct {
	Name  string
	Store interfaces.Store
}

// MultiStore implements a composite store that tries its levels in order.
// Reads stop at the first hit; writes and deletes go to every level.
type MultiStore struct {
	levels            []Level
	enablePropagation bool
	propagationTTL    time.Duration
	logger            *zap.Logger
}

// NewMultiStore creates a new MultiStore with the provided levels, fastest first.
// With propagation enabled a hit on a later level is copied into the earlier
// levels for propagationTTL, capped by the time the entry has left.
func NewMultiStore(levels []Level, enablePropagation bool, propagationTTL time.Duration, logger *zap.Logger) *MultiStore {
	return &MultiStore{
		levels:            levels,
		enablePropagation: enablePropagation,
		propagationTTL:    propagationTTL,
		logger:            logger,
	}
}

// Get retrieves value from the first level that has the key
func (ms *MultiStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, _, found, err := ms.GetWithLevel(ctx, key)
	return val, found, err
}

// GetWithLevel retrieves value and reports the level that served it.
// Errors from a level are remembered but do not stop the lookup.
func (ms *MultiStore) GetWithLevel(ctx context.Context, key string) ([]byte, string, bool, error) {
	if len(ms.levels) == 0 {
		ms.logger.Warn("No store levels available for get operation", zap.String("key", key))
		return nil, string(models.CacheLevelMiss), false, nil
	}

	var errs []error
	for i, level := range ms.levels {
		val, remaining, found, err := getWithTTL(ctx, level.Store, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", level.Name, err))
			continue
		}
		if !found {
			continue
		}

		metrics.RecordLevelHit(level.Name)
		if ms.enablePropagation && i > 0 {
			ms.propagate(ctx, key, val, i, remaining)
		}
		return val, level.Name, true, nil
	}

	return nil, string(models.CacheLevelMiss), false, errors.Join(errs...)
}

// getWithTTL reads from a level; levels that cannot report the remaining
// lifetime return a negative duration
func getWithTTL(ctx context.Context, store interfaces.Store, key string) ([]byte, time.Duration, bool, error) {
	if ttlStore, ok := store.(interfaces.TTLStore); ok {
		return ttlStore.GetWithTTL(ctx, key)
	}
	val, found, err := store.Get(ctx, key)
	return val, -1, found, err
}

// propagate copies a value found at level idx into the faster levels.
// The copy never outlives the entry it was read from.
func (ms *MultiStore) propagate(ctx context.Context, key string, val []byte, idx int, remaining time.Duration) {
	ttl := ms.propagationTTL
	if remaining >= 0 {
		ttl = min(ttl, remaining)
	}
	if ttl <= 0 {
		return
	}

	for _, level := range ms.levels[:idx] {
		if err := level.Store.Set(ctx, key, val, ttl); err != nil {
			ms.logger.Warn("Failed to propagate entry",
				zap.String("key", key),
				zap.String("level", level.Name),
				zap.Error(err))
		}
	}
}

// Set stores value in all levels
func (ms *MultiStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if len(ms.levels) == 0 {
		ms.logger.Warn("No store levels available for set operation", zap.String("key", key))
		return nil
	}

	var errs []error
	for _, level := range ms.levels {
		if err := level.Store.Set(ctx, key, val, ttl); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", level.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Delete removes entry from all levels
func (ms *MultiStore) Delete(ctx context.Context, key string) error {
	if len(ms.levels) == 0 {
		ms.logger.Warn("No store levels available for delete operation", zap.String("key", key))
		return nil
	}

	var errs []error
	for _, level := range ms.levels {
		if err := level.Store.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", level.Name, err))
		}
	}
	return errors.Join(errs...)
}

// GetLevelCount returns the number of levels in the multi-store
func (ms *MultiStore) GetLevelCount() int {
	return len(ms.levels)
}
