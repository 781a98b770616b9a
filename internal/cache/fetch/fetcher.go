package fetch

import (
	"context"
	"errors"
	"time"

	"github.com/samber/mo"
	"go.uber.org/zap"

	"go-media-cache/internal/cache"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/metrics"
	"go-media-cache/internal/models"
)

// Fetcher binds the fetch-through wrapper to an optional store.
// mo.None means caching is switched off and every call goes to the producer.
type Fetcher struct {
	store     mo.Option[interfaces.Store]
	flight    *sharedFlight
	keyPrefix string
	logger    *zap.Logger
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithSingleFlight collapses concurrent misses on the same key into one producer call.
// The shared call is detached from the caller that started it and bounded by
// timeout; zero leaves the bound to the producer.
func WithSingleFlight(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.flight = &sharedFlight{timeout: timeout}
	}
}

// WithKeyPrefix sets the key prefix used to derive the metrics namespace of a key
func WithKeyPrefix(prefix string) Option {
	return func(f *Fetcher) {
		f.keyPrefix = prefix
	}
}

// NewFetcher creates a new Fetcher
func NewFetcher(store mo.Option[interfaces.Store], logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Store returns the configured store, if any
func (f *Fetcher) Store() mo.Option[interfaces.Store] {
	return f.store
}

// Enabled reports whether a store is configured
func (f *Fetcher) Enabled() bool {
	return f.store.IsPresent()
}

// FetchThrough runs Through against the fetcher's store.
// Without a store the producer is called directly and the status is BYPASS.
func FetchThrough[T any](ctx context.Context, f *Fetcher, key string, ttl time.Duration, producer Producer[T]) (T, models.CacheStatus, error) {
	namespace := cache.Namespace(f.keyPrefix, key)

	store, ok := f.store.Get()
	if !ok {
		return Bypass(ctx, namespace, producer)
	}
	return through(ctx, store, f.logger, f.flight, namespace, key, ttl, producer)
}

// Bypass calls producer without touching any store
func Bypass[T any](ctx context.Context, namespace string, producer Producer[T]) (T, models.CacheStatus, error) {
	metrics.RecordCacheBypass(namespace)

	val, err := producer(ctx)
	if err != nil && !errors.Is(err, ErrSkipStore) {
		metrics.RecordProducerError(namespace)
	}
	return val, models.CacheStatusBypass, err
}
