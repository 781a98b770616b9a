package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// CacheType represents how volatile the data behind an operation is
type CacheType string

const (
	CacheTypeStatic   CacheType = "static"
	CacheTypeShort    CacheType = "short"
	CacheTypeVolatile CacheType = "volatile"
	CacheTypeNone     CacheType = "none"
)

// UnmarshalYAML implements custom YAML unmarshaling for CacheType
func (c *CacheType) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	switch str {
	case "static", "short", "volatile", "none":
		*c = CacheType(str)
		return nil
	default:
		return fmt.Errorf("invalid cache type '%s': must be one of 'static', 'short', 'volatile', 'none'", str)
	}
}

// CacheInfo contains cache configuration information
type CacheInfo struct {
	TTL       time.Duration `json:"ttl"`
	CacheType CacheType     `json:"cache_type"`
}

// CacheStatus reports how a request was served
type CacheStatus string

const (
	CacheStatusHit    CacheStatus = "HIT"
	CacheStatusMiss   CacheStatus = "MISS"
	CacheStatusBypass CacheStatus = "BYPASS"
)

// CacheLevel identifies which store level served a hit
type CacheLevel string

const (
	CacheLevelL1   CacheLevel = "l1"
	CacheLevelL2   CacheLevel = "l2"
	CacheLevelMiss CacheLevel = "miss"
)
