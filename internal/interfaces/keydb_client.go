package interfaces

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -source=keydb_client.go -destination=mock/keydb_client.go -package=mock

// KeyDbClient is the subset of a KeyDB/Redis client used by the L2 store
type KeyDbClient interface {
	// Get retrieves an envelope by key; redis.Nil signals a miss
	Get(ctx context.Context, key string) *redis.StringCmd

	// Set stores an envelope with its native expiration
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd

	// Del evicts one or more keys
	Del(ctx context.Context, keys ...string) *redis.IntCmd

	// Ping tests connectivity
	Ping(ctx context.Context) *redis.StatusCmd

	// AddHook attaches a command hook, used for store error metrics
	AddHook(hook redis.Hook)

	// Close closes the client connection
	Close() error
}
