package httpserver

import (
	"encoding/json"

	"go-media-cache/internal/models"
)

// CacheRequest represents a cache operation request
type CacheRequest struct {
	RawBody string          `json:"raw_body"`       // Raw media request: namespace, provider, operation, params
	Data    json.RawMessage `json:"data,omitempty"` // For SET operations - provider result
	TTL     *int            `json:"ttl,omitempty"`  // TTL in seconds, optional for SET
}

// CacheResponse represents a cache operation response
type CacheResponse struct {
	Success     bool               `json:"success"`
	Found       bool               `json:"found,omitempty"`
	Data        json.RawMessage    `json:"data,omitempty"`
	Key         string             `json:"key,omitempty"`
	CacheType   string             `json:"cache_type,omitempty"`
	TTL         int                `json:"ttl,omitempty"`
	Error       string             `json:"error,omitempty"`
	CacheStatus models.CacheStatus `json:"cache_status,omitempty"` // HIT, MISS, or BYPASS
	CacheLevel  models.CacheLevel  `json:"cache_level,omitempty"`  // l1, l2, or miss
}

// ProvidersResponse lists configured providers grouped by namespace
type ProvidersResponse struct {
	Namespaces map[string][]models.ProviderInfo `json:"namespaces"`
	Total      int                              `json:"total"`
}
