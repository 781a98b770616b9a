package noop

import (
	"context"
	"time"

	"go-media-cache/internal/interfaces"
)

// Ensure NoOpStore implements interfaces.Store
var _ interfaces.Store = (*NoOpStore)(nil)

// NoOpStore is a no-operation store implementation for disabled levels
type NoOpStore struct{}

// NewNoOpStore creates a new no-operation store instance
func NewNoOpStore() interfaces.Store {
	return &NoOpStore{}
}

// Get always returns a miss
func (n *NoOpStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set does nothing
func (n *NoOpStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing
func (n *NoOpStore) Delete(ctx context.Context, key string) error {
	return nil
}
