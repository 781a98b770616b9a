package models

import "time"

// CacheEntry is the envelope written by stores. Timestamps are unix milliseconds.
type CacheEntry struct {
	Data      []byte `json:"data"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// NewCacheEntry wraps data with an expiration derived from ttl
func NewCacheEntry(data []byte, ttl time.Duration) CacheEntry {
	now := time.Now()
	return CacheEntry{
		Data:      data,
		CreatedAt: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
	}
}

// IsExpired reports whether the entry outlived its TTL
func (e *CacheEntry) IsExpired() bool {
	return time.Now().UnixMilli() >= e.ExpiresAt
}

// Remaining returns the time left before expiry, zero when expired
func (e *CacheEntry) Remaining() time.Duration {
	left := time.Until(time.UnixMilli(e.ExpiresAt))
	if left < 0 {
		return 0
	}
	return left
}
