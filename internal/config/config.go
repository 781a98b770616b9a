package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config represents the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	BigCache   BigCacheConfig   `yaml:"bigcache"`
	Memory     MemoryConfig     `yaml:"memory"`
	KeyDB      KeyDBConfig      `yaml:"keydb"`
	MultiCache MultiCacheConfig `yaml:"multi_cache"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Admin      AdminConfig      `yaml:"admin"`
	Providers  []ProviderConfig `yaml:"providers" validate:"dive"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Address      string        `yaml:"address"`
	SocketPath   string        `yaml:"socket_path"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// BigCacheConfig configures the in-process L1 cache
type BigCacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Size         int           `yaml:"size" validate:"gte=0"` // MB
	LifeWindow   time.Duration `yaml:"life_window"`
	MaxEntrySize int           `yaml:"max_entry_size" validate:"gte=0"` // bytes
}

// MemoryConfig configures the ttlcache based in-process store used when bigcache is disabled
type MemoryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Capacity uint64 `yaml:"capacity"`
}

// KeyDBConfig configures the shared L2 store
type KeyDBConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Connection KeyDBConnection `yaml:"connection"`
	Keepalive  KeyDBKeepalive  `yaml:"keepalive"`
}

// KeyDBConnection holds client timeouts
type KeyDBConnection struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

// KeyDBKeepalive holds pool settings
type KeyDBKeepalive struct {
	PoolSize       int           `yaml:"pool_size" validate:"gte=0"`
	MaxIdleTimeout time.Duration `yaml:"max_idle_timeout"`
}

// MultiCacheConfig configures the layered store
type MultiCacheConfig struct {
	EnablePropagation bool          `yaml:"enable_propagation"`
	PropagationTTL    time.Duration `yaml:"propagation_ttl"`
}

// FetchConfig configures the fetch-through wrapper
type FetchConfig struct {
	KeyPrefix    string `yaml:"key_prefix"`
	SingleFlight bool   `yaml:"single_flight"`
}

// AdminConfig configures access to the cache mutation endpoints
type AdminConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ProviderConfig describes one upstream provider
type ProviderConfig struct {
	Name       string                     `yaml:"name" validate:"required,lowercase"`
	Namespace  string                     `yaml:"namespace" validate:"required,lowercase"`
	Kind       string                     `yaml:"kind" validate:"required,oneof=json html"`
	BaseURL    string                     `yaml:"base_url" validate:"required,url"`
	Timeout    time.Duration              `yaml:"timeout"`
	Headers    map[string]string          `yaml:"headers"`
	Operations map[string]OperationConfig `yaml:"operations" validate:"dive"`
}

// OperationConfig describes the upstream path of one operation.
// Item and Fields are only used by html providers.
type OperationConfig struct {
	Path   string                 `yaml:"path"`
	Item   string                 `yaml:"item"`
	Fields map[string]FieldConfig `yaml:"fields"`
}

// FieldConfig selects a single value inside an item
type FieldConfig struct {
	Selector string `yaml:"selector"`
	Attr     string `yaml:"attr"`
}

// LoadConfig loads configuration from file path
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	// Apply defaults
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks struct tags and cross-field rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Providers))
	for _, p := range c.Providers {
		id := p.Namespace + ":" + p.Name
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate provider %s", id)
		}
		seen[id] = struct{}{}

		if p.Kind != "html" {
			continue
		}
		if len(p.Operations) == 0 {
			return fmt.Errorf("provider %s: html providers need at least one operation", id)
		}
		for name, op := range p.Operations {
			if op.Path == "" || op.Item == "" || len(op.Fields) == 0 {
				return fmt.Errorf("provider %s: operation %s needs path, item and fields", id, name)
			}
		}
	}

	if c.Server.Address == "" && c.Server.SocketPath == "" {
		return fmt.Errorf("server needs an address or a socket_path")
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	c.Server.applyDefaults()
	c.BigCache.applyDefaults()
	c.KeyDB.applyDefaults()

	if c.MultiCache.PropagationTTL == 0 {
		c.MultiCache.PropagationTTL = 5 * time.Minute
	}

	if c.Fetch.KeyPrefix == "" {
		c.Fetch.KeyPrefix = "media"
	}

	for i := range c.Providers {
		if c.Providers[i].Timeout == 0 {
			c.Providers[i].Timeout = 10 * time.Second
		}
	}
}

func (s *ServerConfig) applyDefaults() {
	if s.Address == "" && s.SocketPath == "" {
		s.Address = ":8080"
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 60 * time.Second
	}
}

func (b *BigCacheConfig) applyDefaults() {
	if b.Size == 0 {
		b.Size = 100
	}
	if b.LifeWindow == 0 {
		// upper bound for any entry; per-entry expiry is enforced by the envelope
		b.LifeWindow = 24 * time.Hour
	}
	if b.MaxEntrySize == 0 {
		b.MaxEntrySize = 1024 * 1024
	}
}

func (k *KeyDBConfig) applyDefaults() {
	if k.Connection.ConnectTimeout == 0 {
		k.Connection.ConnectTimeout = time.Second
	}
	if k.Connection.SendTimeout == 0 {
		k.Connection.SendTimeout = time.Second
	}
	if k.Connection.ReadTimeout == 0 {
		k.Connection.ReadTimeout = time.Second
	}
	if k.Keepalive.PoolSize == 0 {
		k.Keepalive.PoolSize = 10
	}
	if k.Keepalive.MaxIdleTimeout == 0 {
		k.Keepalive.MaxIdleTimeout = 10 * time.Second
	}
}

// GetReadTimeout returns the L2 read timeout
func (k *KeyDBConfig) GetReadTimeout() time.Duration {
	return k.Connection.ReadTimeout
}

// GetSendTimeout returns the L2 write timeout
func (k *KeyDBConfig) GetSendTimeout() time.Duration {
	return k.Connection.SendTimeout
}
