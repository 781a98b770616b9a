package interfaces

import (
	"context"
	"time"
)

//go:generate mockgen -package=mock -source=store.go -destination=mock/store.go

// Store is the key-value contract consumed by the fetch-through wrapper.
// A miss is reported as found=false with a nil error; err is reserved for
// store failures.
type Store interface {
	Get(ctx context.Context, key string) (val []byte, found bool, err error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TTLStore is implemented by stores that know how long an entry has left
type TTLStore interface {
	Store
	// GetWithTTL behaves like Get and also returns the remaining lifetime of the hit
	GetWithTTL(ctx context.Context, key string) (val []byte, remaining time.Duration, found bool, err error)
}

// LevelAwareStore is implemented by stores composed of several levels
type LevelAwareStore interface {
	Store
	// GetWithLevel behaves like Get and also reports the level that served the hit
	GetWithLevel(ctx context.Context, key string) (val []byte, level string, found bool, err error)
}
