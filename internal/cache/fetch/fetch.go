package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-media-cache/internal/cache"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/metrics"
	"go-media-cache/internal/models"
)

var (
	ErrEmptyKey   = errors.New("cache key cannot be empty")
	ErrInvalidTTL = errors.New("cache ttl must be positive")

	// ErrSkipStore is wrapped by producer errors that hand a value back to the
	// caller without it being stored. It is not counted as a producer failure.
	ErrSkipStore = errors.New("result not cached")
)

// Producer computes a value on a cache miss
type Producer[T any] func(ctx context.Context) (T, error)

// Through returns the value stored under key, or calls producer, stores its
// JSON encoding for ttl and returns it.
// A producer error is returned unchanged and nothing is written; errors
// wrapping ErrSkipStore return the produced value without storing it.
// Store failures are logged and treated as a miss.
func Through[T any](ctx context.Context, store interfaces.Store, logger *zap.Logger, key string, ttl time.Duration, producer Producer[T]) (T, error) {
	val, _, err := ThroughStatus(ctx, store, logger, key, ttl, producer)
	return val, err
}

// ThroughStatus is Through that also reports whether the value was a hit or a miss
func ThroughStatus[T any](ctx context.Context, store interfaces.Store, logger *zap.Logger, key string, ttl time.Duration, producer Producer[T]) (T, models.CacheStatus, error) {
	return through(ctx, store, logger, nil, cache.Namespace("", key), key, ttl, producer)
}

// sharedFlight collapses concurrent misses on one key
type sharedFlight struct {
	group   singleflight.Group
	timeout time.Duration
}

// detach derives the context of a shared producer call: values are kept,
// cancellation of the caller that started it is not
func (f *sharedFlight) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	shared := context.WithoutCancel(ctx)
	if f.timeout <= 0 {
		return context.WithCancel(shared)
	}
	return context.WithTimeout(shared, f.timeout)
}

func through[T any](
	ctx context.Context,
	store interfaces.Store,
	logger *zap.Logger,
	flight *sharedFlight,
	namespace string,
	key string,
	ttl time.Duration,
	producer Producer[T],
) (T, models.CacheStatus, error) {
	var zero T
	if key == "" {
		return zero, models.CacheStatusMiss, ErrEmptyKey
	}
	if ttl <= 0 {
		return zero, models.CacheStatusMiss, ErrInvalidTTL
	}

	metrics.RecordCacheRequest(namespace)
	defer metrics.TimeOperation("fetch", namespace)()

	if val, ok := lookup[T](ctx, store, logger, key); ok {
		metrics.RecordCacheHit(namespace)
		logger.Debug("Cache hit", zap.String("key", key))
		return val, models.CacheStatusHit, nil
	}
	metrics.RecordCacheMiss(namespace)
	logger.Debug("Cache miss", zap.String("key", key), zap.Duration("ttl", ttl))

	if flight == nil {
		val, err := produceAndStore(ctx, store, logger, namespace, key, ttl, producer)
		return val, models.CacheStatusMiss, err
	}

	// concurrent misses on one key share a single producer call
	ch := flight.group.DoChan(key, func() (interface{}, error) {
		sharedCtx, cancel := flight.detach(ctx)
		defer cancel()
		return produceAndStore(sharedCtx, store, logger, namespace, key, ttl, producer)
	})

	select {
	case <-ctx.Done():
		return zero, models.CacheStatusMiss, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logger.Debug("Shared in-flight producer result", zap.String("key", key))
		}
		val, _ := res.Val.(T)
		return val, models.CacheStatusMiss, res.Err
	}
}

// lookup reads and decodes key. Undecodable entries are removed.
func lookup[T any](ctx context.Context, store interfaces.Store, logger *zap.Logger, key string) (T, bool) {
	var val T

	raw, found, err := store.Get(ctx, key)
	if err != nil {
		logStoreError(logger, "read", key, err)
		return val, false
	}
	if !found {
		return val, false
	}

	if err := json.Unmarshal(raw, &val); err != nil {
		logStoreError(logger, "decode", key, err)
		if err := store.Delete(ctx, key); err != nil {
			logStoreError(logger, "delete", key, err)
		}
		var zero T
		return zero, false
	}
	return val, true
}

func produceAndStore[T any](
	ctx context.Context,
	store interfaces.Store,
	logger *zap.Logger,
	namespace string,
	key string,
	ttl time.Duration,
	producer Producer[T],
) (T, error) {
	stop := metrics.TimeOperation("produce", namespace)
	val, err := producer(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, ErrSkipStore) {
			metrics.RecordProducerError(namespace)
		}
		return val, err
	}

	data, err := json.Marshal(val)
	if err != nil {
		logStoreError(logger, "encode", key, err)
		return val, nil
	}

	if err := store.Set(ctx, key, data, ttl); err != nil {
		logStoreError(logger, "write", key, err)
	}
	return val, nil
}

// logStoreError keeps store failures apart from producer failures in logs and metrics
func logStoreError(logger *zap.Logger, kind, key string, err error) {
	metrics.RecordCacheError("fetch", kind)
	logger.Warn("Cache store error, continuing without cache",
		zap.String("event", "store_error"),
		zap.String("kind", kind),
		zap.String("key", key),
		zap.Error(err))
}
