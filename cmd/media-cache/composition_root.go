package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"

	"go-media-cache/internal/cache"
	"go-media-cache/internal/cache/fetch"
	"go-media-cache/internal/cache/l1"
	"go-media-cache/internal/cache/l2"
	"go-media-cache/internal/cache/memory"
	"go-media-cache/internal/cache/multi"
	"go-media-cache/internal/cache/noop"
	"go-media-cache/internal/cache/service"
	"go-media-cache/internal/cache_rules"
	"go-media-cache/internal/config"
	"go-media-cache/internal/httpserver"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/models"
	"go-media-cache/internal/upstream"
)

// CompositionRoot holds all application dependencies and provides a centralized
// place for dependency injection and service initialization.
type CompositionRoot struct {
	// Configuration
	Config     *config.Config
	Logger     *zap.Logger
	CacheRules interfaces.CacheRulesClassifier

	// Cache components
	L1Cache    interfaces.Store
	L2Cache    interfaces.Store
	Store      mo.Option[interfaces.Store]
	KeyBuilder interfaces.KeyBuilder

	// Services
	Upstream     interfaces.Upstream
	Fetcher      *fetch.Fetcher
	CacheService *service.CacheService
	HTTPServer   *httpserver.Server

	rulesConfig interfaces.CacheRulesConfig
}

// NewCompositionRoot creates and initializes all application dependencies.
//
// Initialization order:
// 1. Logger (needed by all other components)
// 2. Configuration (defines how components should be configured)
// 3. Cache rules (defines caching policies)
// 4. Cache components (L1, L2, layered store, KeyBuilder)
// 5. Services (upstream registry, fetcher, CacheService)
// 6. HTTP Server (uses all above components)
func NewCompositionRoot(configPath, rulesPath string) (*CompositionRoot, error) {
	root := &CompositionRoot{}

	// Initialize logger first
	if err := root.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Load configuration
	if err := root.loadConfig(configPath); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Load cache rules
	if err := root.loadCacheRules(rulesPath); err != nil {
		return nil, fmt.Errorf("failed to load cache rules: %w", err)
	}

	// Initialize cache components
	if err := root.initCacheComponents(); err != nil {
		return nil, fmt.Errorf("failed to initialize cache components: %w", err)
	}

	// Initialize services
	if err := root.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize HTTP server
	root.initHTTPServer()

	return root, nil
}

// initLogger initializes the application logger
func (r *CompositionRoot) initLogger() error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	r.Logger = logger
	return nil
}

// loadConfig loads the application configuration
func (r *CompositionRoot) loadConfig(configPath string) error {
	cfg, err := config.LoadConfig(configPath, r.Logger)
	if err != nil {
		return err
	}

	r.Config = cfg
	return nil
}

// loadCacheRules loads cache rules configuration
func (r *CompositionRoot) loadCacheRules(rulesPath string) error {
	cacheRules, err := cache_rules.LoadCacheRulesConfig(rulesPath, r.Logger)
	if err != nil {
		return err
	}

	r.rulesConfig = cacheRules
	// Create classifier from the loaded config
	r.CacheRules = cache_rules.NewClassifier(r.Logger, cacheRules)
	return nil
}

// initCacheComponents initializes all cache-related components
func (r *CompositionRoot) initCacheComponents() error {
	// Initialize L1 cache (BigCache or ttlcache)
	if err := r.initL1Cache(); err != nil {
		return fmt.Errorf("failed to initialize L1 cache: %w", err)
	}

	// Initialize L2 cache (KeyDB)
	r.initL2Cache()

	// Layered store over the enabled levels; no level means no caching at all
	var levels []multi.Level
	if r.L1Cache != nil {
		levels = append(levels, multi.Level{Name: "l1", Store: r.L1Cache})
	}
	if r.L2Cache != nil {
		levels = append(levels, multi.Level{Name: "l2", Store: r.L2Cache})
	}

	if len(levels) == 0 {
		r.Store = mo.None[interfaces.Store]()
		r.Logger.Warn("No cache level enabled, all requests go to providers")
	} else {
		r.Store = mo.Some[interfaces.Store](multi.NewMultiStore(
			levels,
			r.Config.MultiCache.EnablePropagation,
			r.Config.MultiCache.PropagationTTL,
			r.Logger,
		))
	}

	// Initialize key builder
	r.KeyBuilder = cache.NewKeyBuilder(r.Config.Fetch.KeyPrefix)

	return nil
}

// initL1Cache initializes the L1 cache
func (r *CompositionRoot) initL1Cache() error {
	switch {
	case r.Config.BigCache.Enabled:
		l1Cache, err := l1.NewBigCache(&r.Config.BigCache, r.Logger)
		if err != nil {
			return err
		}
		r.L1Cache = l1Cache
		r.Logger.Info("BigCache (L1) initialized", zap.Int("size_mb", r.Config.BigCache.Size))
	case r.Config.Memory.Enabled:
		r.L1Cache = memory.NewStore(r.Config.Memory.Capacity, r.Logger)
		r.Logger.Info("Memory store (L1) initialized", zap.Uint64("capacity", r.Config.Memory.Capacity))
	default:
		r.Logger.Info("L1 cache disabled")
	}
	return nil
}

// initL2Cache initializes the L2 cache (KeyDB)
func (r *CompositionRoot) initL2Cache() {
	if !r.Config.KeyDB.Enabled {
		r.Logger.Info("KeyDB (L2) disabled")
		return
	}

	redis.SetLogger(NewRedisLogger(r.Logger))
	keydbURL := GetKeyDBURL(r.Logger)

	// Create KeyDB client
	keydbClient, err := l2.NewRedisKeyDbClient(&r.Config.KeyDB, keydbURL, r.Logger)
	if err != nil {
		r.Logger.Warn("Failed to connect to KeyDB, falling back to no L2 cache",
			zap.String("keydb_url", keydbURL),
			zap.Error(err))
		r.L2Cache = noop.NewNoOpStore()
		return
	}
	keydbClient.AddHook(NewPrometheusHook())

	// Create L2 cache with the client
	r.L2Cache = l2.NewKeyDBCache(&r.Config.KeyDB, keydbClient, r.Logger)
	r.Logger.Info("KeyDB (L2) initialized", zap.String("keydb_url", keydbURL))
}

// initServices initializes application services
func (r *CompositionRoot) initServices() error {
	registry, err := upstream.NewRegistry(r.Config.Providers, r.Logger)
	if err != nil {
		return err
	}
	r.Upstream = registry
	r.warnUnclassifiedOperations()

	opts := []fetch.Option{fetch.WithKeyPrefix(r.Config.Fetch.KeyPrefix)}
	if r.Config.Fetch.SingleFlight {
		// a shared upstream call lives at most as long as the slowest provider allows
		opts = append(opts, fetch.WithSingleFlight(lo.Max(lo.Map(r.Config.Providers, func(p config.ProviderConfig, _ int) time.Duration {
			return p.Timeout
		}))))
	}
	r.Fetcher = fetch.NewFetcher(r.Store, r.Logger, opts...)

	// Initialize cache service
	r.CacheService = service.NewCacheService(
		r.Fetcher,
		r.Upstream,
		r.KeyBuilder,
		r.CacheRules,
		r.Logger,
	)

	return nil
}

// warnUnclassifiedOperations logs provider operations that have no cache rule and will bypass the cache
func (r *CompositionRoot) warnUnclassifiedOperations() {
	for provider, missing := range unclassifiedOperations(r.rulesConfig, r.Upstream.Providers()) {
		r.Logger.Warn("Provider operations without cache rule are never cached",
			zap.String("provider", provider),
			zap.Strings("operations", missing))
	}
}

// unclassifiedOperations maps "<namespace>:<provider>" to its operations that match no cache rule
func unclassifiedOperations(rules interfaces.CacheRulesConfig, providers []models.ProviderInfo) map[string][]string {
	ruled := rules.GetAllOperations()

	result := make(map[string][]string)
	for _, p := range providers {
		missing := lo.Filter(p.Operations, func(op string, _ int) bool {
			return !lo.Contains(ruled, op) && !lo.Contains(ruled, p.Namespace+":"+op)
		})
		if len(missing) > 0 {
			result[p.Namespace+":"+p.Name] = missing
		}
	}
	return result
}

// initHTTPServer initializes the HTTP server
func (r *CompositionRoot) initHTTPServer() {
	r.HTTPServer = httpserver.NewServer(
		r.CacheService,
		r.Config.Server,
		GetAdminSecret(r.Config.Admin.JWTSecret),
		r.Logger,
	)
}

// Cleanup performs cleanup of all resources
func (r *CompositionRoot) Cleanup() error {
	var errs []error

	// Close cache levels
	for name, level := range map[string]interfaces.Store{"L1": r.L1Cache, "L2": r.L2Cache} {
		if closer, ok := level.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("failed to close %s cache: %w", name, err))
			}
		}
	}

	// Sync logger
	if r.Logger != nil {
		if err := r.Logger.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("failed to sync logger: %w", err))
		}
	}

	return errors.Join(errs...)
}
