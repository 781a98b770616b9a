package cache_rules

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/models"
)

// CacheConfig implements the CacheRulesConfig interface
type CacheConfig struct {
	config    *CacheRulesConfig
	skipEmpty map[string]struct{}
	logger    *zap.Logger
}

// Ensure CacheConfig implements the CacheRulesConfig interface
var _ interfaces.CacheRulesConfig = (*CacheConfig)(nil)

// NewCacheConfig creates a new CacheConfig instance
func NewCacheConfig(config *CacheRulesConfig, logger *zap.Logger) *CacheConfig {
	if config == nil {
		panic("config cannot be nil")
	}
	return &CacheConfig{
		config: config,
		skipEmpty: lo.SliceToMap(config.SkipEmptyCache, func(op string) (string, struct{}) {
			return op, struct{}{}
		}),
		logger: logger,
	}
}

// GetTtlForCacheType implements CacheRulesConfig interface
func (cr *CacheConfig) GetTtlForCacheType(namespace, provider string, cacheType models.CacheType) time.Duration {
	if cacheType == models.CacheTypeNone {
		return 0
	}

	if len(cr.config.TTLDefaults) == 0 {
		return cr.getFallbackTTL(cacheType)
	}

	// Try provider-specific config first
	if namespace != "" && provider != "" {
		providerKey := fmt.Sprintf("%s:%s", namespace, provider)
		if ttl := cr.lookupTTL(providerKey, cacheType); ttl > 0 {
			return ttl
		}
	}

	// Try namespace-specific config
	if namespace != "" {
		if ttl := cr.lookupTTL(namespace, cacheType); ttl > 0 {
			return ttl
		}
	}

	// Fall back to default config
	if ttl := cr.lookupTTL("default", cacheType); ttl > 0 {
		return ttl
	}

	return cr.getFallbackTTL(cacheType)
}

// lookupTTL looks up TTL value from config
func (cr *CacheConfig) lookupTTL(key string, cacheType models.CacheType) time.Duration {
	ttlDefaults, ok := cr.config.TTLDefaults[key]
	if !ok {
		return 0
	}

	if duration, exists := ttlDefaults[cacheType]; exists {
		return duration
	}

	return 0
}

// GetAllOperations returns all configured operations from cache rules
func (cr *CacheConfig) GetAllOperations() []string {
	return lo.Keys(cr.config.CacheRules)
}

// getFallbackTTL provides fallback TTL values when config is not available
func (cr *CacheConfig) getFallbackTTL(cacheType models.CacheType) time.Duration {
	fallbackTTLs := map[models.CacheType]time.Duration{
		models.CacheTypeStatic:   24 * time.Hour,
		models.CacheTypeShort:    time.Hour,
		models.CacheTypeVolatile: 10 * time.Minute,
	}

	if ttl, ok := fallbackTTLs[cacheType]; ok {
		return ttl
	}

	return 0
}

// GetCacheTypeForOperation implements CacheRulesConfig interface
func (cr *CacheConfig) GetCacheTypeForOperation(namespace, operation string) models.CacheType {
	if operation == "" {
		if cr.logger != nil {
			cr.logger.Warn("Empty operation provided, returning none cache type")
		}
		return models.CacheTypeNone
	}

	if cr.config.CacheRules == nil {
		return models.CacheTypeNone
	}

	if namespace != "" {
		if cacheType, exists := cr.config.CacheRules[namespace+":"+operation]; exists {
			return cacheType
		}
	}

	if cacheType, exists := cr.config.CacheRules[operation]; exists {
		return cacheType
	}

	if cr.logger != nil {
		cr.logger.Debug("Operation not found in cache rules, returning none cache type",
			zap.String("namespace", namespace),
			zap.String("operation", operation))
	}
	return models.CacheTypeNone
}

// ShouldSkipEmptyCache implements CacheRulesConfig interface
func (cr *CacheConfig) ShouldSkipEmptyCache(operation string) bool {
	_, ok := cr.skipEmpty[operation]
	return ok
}
