package interfaces

import (
	"time"

	"go-media-cache/internal/models"
)

//go:generate mockgen -package=mock -source=cache_rules_config.go -destination=mock/cache_rules_config.go

// CacheRulesConfig resolves cache types and TTLs from the loaded rules
type CacheRulesConfig interface {
	// GetCacheTypeForOperation returns the cache type configured for an operation
	GetCacheTypeForOperation(namespace, operation string) models.CacheType
	// GetTtlForCacheType returns the TTL for a cache type, most specific scope first
	GetTtlForCacheType(namespace, provider string, cacheType models.CacheType) time.Duration
	// ShouldSkipEmptyCache returns true if empty results of the operation must not be cached
	ShouldSkipEmptyCache(operation string) bool
	// GetAllOperations lists the operations that have a cache rule, as written in the rules file
	GetAllOperations() []string
}
