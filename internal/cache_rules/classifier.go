package cache_rules

import (
	"go.uber.org/zap"

	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/models"
)

// Classifier implements the CacheRulesClassifier interface
type Classifier struct {
	logger    *zap.Logger
	configTTL interfaces.CacheRulesConfig
}

// Ensure Classifier implements the CacheRulesClassifier interface
var _ interfaces.CacheRulesClassifier = (*Classifier)(nil)

// NewClassifier creates a new Classifier instance
func NewClassifier(logger *zap.Logger, configTTL interfaces.CacheRulesConfig) *Classifier {
	return &Classifier{
		logger:    logger,
		configTTL: configTTL,
	}
}

// GetTtl implements CacheRulesClassifier interface
func (c *Classifier) GetTtl(req *models.MediaRequest) models.CacheInfo {
	if req == nil || req.Operation == "" {
		return models.CacheInfo{TTL: 0, CacheType: models.CacheTypeNone}
	}

	cacheType := c.configTTL.GetCacheTypeForOperation(req.Namespace, req.Operation)
	if cacheType == models.CacheTypeNone {
		return models.CacheInfo{TTL: 0, CacheType: models.CacheTypeNone}
	}

	// zero only when neither a configured scope nor the fallbacks know the cache type
	ttl := c.configTTL.GetTtlForCacheType(req.Namespace, req.Provider, cacheType)
	if ttl == 0 {
		c.logger.Debug("Cache rule resolved to zero TTL, bypassing",
			zap.String("namespace", req.Namespace),
			zap.String("provider", req.Provider),
			zap.String("operation", req.Operation),
			zap.String("cache_type", string(cacheType)))
		return models.CacheInfo{TTL: 0, CacheType: models.CacheTypeNone}
	}

	return models.CacheInfo{TTL: ttl, CacheType: cacheType}
}

// ShouldSkipEmptyCache implements CacheRulesClassifier interface
func (c *Classifier) ShouldSkipEmptyCache(operation string) bool {
	return c.configTTL.ShouldSkipEmptyCache(operation)
}
