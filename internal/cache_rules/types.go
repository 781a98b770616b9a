package cache_rules

import (
	"time"

	"go-media-cache/internal/models"
)

// TTLDefaults represents TTL settings for different cache types
type TTLDefaults map[models.CacheType]time.Duration

// CacheRulesConfig represents the cache rules configuration
type CacheRulesConfig struct {
	// TTLDefaults is keyed by "default", "<namespace>" or "<namespace>:<provider>"
	TTLDefaults    map[string]TTLDefaults `yaml:"ttl_defaults"`
	SkipEmptyCache []string               `yaml:"skip_empty_cache"`
	// CacheRules is keyed by "<operation>" or "<namespace>:<operation>"
	CacheRules map[string]models.CacheType `yaml:"cache_rules"`
}
