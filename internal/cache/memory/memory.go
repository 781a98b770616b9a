package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"go-media-cache/internal/interfaces"
)

// Ensure Store implements interfaces.Store
var _ interfaces.TTLStore = (*Store)(nil)

// Store is an in-process store with per-entry expiry backed by ttlcache
type Store struct {
	cache  *ttlcache.Cache[string, []byte]
	logger *zap.Logger
}

// NewStore creates a memory store. A zero capacity means unbounded.
// Expired items are purged by a background janitor until Close is called.
func NewStore(capacity uint64, logger *zap.Logger) *Store {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}

	s := &Store{
		cache:  ttlcache.New[string, []byte](opts...),
		logger: logger,
	}
	go s.cache.Start()

	return s
}

// Get returns the value if present and not expired
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, _, found, err := s.GetWithTTL(ctx, key)
	return val, found, err
}

// GetWithTTL returns the value and the time left before it expires
func (s *Store) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	item := s.cache.Get(key)
	if item == nil || item.IsExpired() {
		return nil, 0, false, nil
	}
	return item.Value(), time.Until(item.ExpiresAt()), true, nil
}

// Set replaces any existing value and resets its expiry
func (s *Store) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	s.cache.Set(key, val, ttl)
	return nil
}

// Delete removes the key
func (s *Store) Delete(ctx context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Len returns the number of live items
func (s *Store) Len() int {
	return s.cache.Len()
}

// Close stops the expiry janitor
func (s *Store) Close() error {
	s.cache.Stop()
	s.logger.Debug("Stopped memory store janitor")
	return nil
}
