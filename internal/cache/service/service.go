package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-media-cache/internal/cache/fetch"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/models"
	"go-media-cache/internal/utils"
)

var (
	ErrCacheDisabled = errors.New("cache store is not configured")
	ErrInvalidData   = errors.New("data must be valid JSON")
)

// emptyResult carries an empty upstream result past the fetch wrapper
// so that it is returned to the caller without being stored.
type emptyResult struct {
	data json.RawMessage
}

func (e *emptyResult) Error() string {
	return "empty result not cached"
}

func (e *emptyResult) Unwrap() error {
	return fetch.ErrSkipStore
}

// CacheService serves media requests through the fetch-through cache
type CacheService struct {
	fetcher    *fetch.Fetcher
	upstream   interfaces.Upstream
	keyBuilder interfaces.KeyBuilder
	classifier interfaces.CacheRulesClassifier
	logger     *zap.Logger
}

// NewCacheService creates a new cache service instance
func NewCacheService(
	fetcher *fetch.Fetcher,
	upstream interfaces.Upstream,
	keyBuilder interfaces.KeyBuilder,
	classifier interfaces.CacheRulesClassifier,
	logger *zap.Logger,
) *CacheService {
	return &CacheService{
		fetcher:    fetcher,
		upstream:   upstream,
		keyBuilder: keyBuilder,
		classifier: classifier,
		logger:     logger,
	}
}

// FetchResponse is the result of a cached provider call
type FetchResponse struct {
	Data      json.RawMessage
	Key       string
	Status    models.CacheStatus
	CacheType models.CacheType
	TTL       time.Duration
}

// Fetch returns the provider result for req, from cache when possible.
// Operations classified as "none" always go to the provider.
func (s *CacheService) Fetch(ctx context.Context, req *models.MediaRequest) (*FetchResponse, error) {
	key, err := s.keyBuilder.Build(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache key: %w", err)
	}

	info := s.classifier.GetTtl(req)
	resp := &FetchResponse{Key: key, CacheType: info.CacheType, TTL: info.TTL}

	var (
		data   json.RawMessage
		status models.CacheStatus
	)
	producer := s.producer(req)
	if info.TTL == 0 {
		data, status, err = fetch.Bypass(ctx, req.Namespace, producer)
	} else {
		data, status, err = fetch.FetchThrough(ctx, s.fetcher, key, info.TTL, producer)
	}
	if err != nil {
		var empty *emptyResult
		if !errors.As(err, &empty) {
			return nil, err
		}
		s.logger.Debug("Skipping cache for empty result", zap.String("key", key))
		data = empty.data
	}

	resp.Data, resp.Status = data, status
	return resp, nil
}

func (s *CacheService) producer(req *models.MediaRequest) fetch.Producer[json.RawMessage] {
	skipEmpty := s.classifier.ShouldSkipEmptyCache(req.Operation)

	return func(ctx context.Context) (json.RawMessage, error) {
		data, err := s.upstream.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if skipEmpty && utils.IsEmptyResult(data) {
			return nil, &emptyResult{data: data}
		}
		return data, nil
	}
}

// GetResponse represents the result of a cache get operation
type GetResponse struct {
	Found      bool              `json:"found"`
	Data       json.RawMessage   `json:"data,omitempty"`
	Key        string            `json:"key"`
	Bypass     bool              `json:"bypass"`
	CacheType  string            `json:"cache_type,omitempty"`
	TTL        int               `json:"ttl,omitempty"`
	CacheLevel models.CacheLevel `json:"cache_level,omitempty"`
}

// Get reads the cached entry for req without calling the provider
func (s *CacheService) Get(ctx context.Context, req *models.MediaRequest) (*GetResponse, error) {
	key, err := s.keyBuilder.Build(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build cache key: %w", err)
	}

	info := s.classifier.GetTtl(req)
	resp := &GetResponse{
		Key:        key,
		CacheType:  string(info.CacheType),
		TTL:        int(info.TTL.Seconds()),
		CacheLevel: models.CacheLevelMiss,
	}

	store, ok := s.fetcher.Store().Get()
	if !ok || info.TTL == 0 {
		resp.Bypass = true
		return resp, nil
	}

	var (
		data  []byte
		level = string(models.CacheLevelMiss)
		found bool
	)
	if leveled, isLeveled := store.(interfaces.LevelAwareStore); isLeveled {
		data, level, found, err = leveled.GetWithLevel(ctx, key)
	} else {
		data, found, err = store.Get(ctx, key)
	}
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
	}
	if !found {
		return resp, nil
	}

	resp.Found = true
	resp.Data = data
	resp.CacheLevel = models.CacheLevel(level)
	return resp, nil
}

// Set stores data for req. A nil ttl uses the classified TTL; a zero TTL stores nothing.
func (s *CacheService) Set(ctx context.Context, req *models.MediaRequest, data json.RawMessage, ttl *time.Duration) (string, error) {
	if !json.Valid(data) {
		return "", ErrInvalidData
	}

	key, err := s.keyBuilder.Build(req)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}

	store, ok := s.fetcher.Store().Get()
	if !ok {
		return key, ErrCacheDisabled
	}

	effective := s.classifier.GetTtl(req).TTL
	if ttl != nil {
		effective = *ttl
	}
	if effective <= 0 {
		return key, nil
	}

	if err := store.Set(ctx, key, data, effective); err != nil {
		return key, fmt.Errorf("failed to store entry: %w", err)
	}
	return key, nil
}

// Delete evicts the cached entry for req
func (s *CacheService) Delete(ctx context.Context, req *models.MediaRequest) (string, error) {
	key, err := s.keyBuilder.Build(req)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}

	store, ok := s.fetcher.Store().Get()
	if !ok {
		return key, ErrCacheDisabled
	}

	if err := store.Delete(ctx, key); err != nil {
		return key, fmt.Errorf("failed to delete entry: %w", err)
	}
	s.logger.Info("Evicted cache entry", zap.String("key", key))
	return key, nil
}

// GetCacheInfo returns the key, cache type and TTL for a request
func (s *CacheService) GetCacheInfo(req *models.MediaRequest) (string, models.CacheInfo, error) {
	key, err := s.keyBuilder.Build(req)
	if err != nil {
		return "", models.CacheInfo{}, fmt.Errorf("failed to build cache key: %w", err)
	}
	return key, s.classifier.GetTtl(req), nil
}

// Providers lists the configured providers
func (s *CacheService) Providers() []models.ProviderInfo {
	return s.upstream.Providers()
}
