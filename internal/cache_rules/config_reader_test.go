package cache_rules

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"go-media-cache/internal/models"
)

func createTempYAMLFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache_rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCacheRulesConfig_Success(t *testing.T) {
	logger := zaptest.NewLogger(t)

	validYAML := `
ttl_defaults:
  default:
    static: 24h
    short: 1h
    volatile: 10m
  anime:gogoanime:
    volatile: 5m

skip_empty_cache:
  - search

cache_rules:
  search: "short"
  info: "short"
  watch: "volatile"
  genre-list: "static"
  manga:read: "volatile"
`

	tmpFile := createTempYAMLFile(t, validYAML)

	config, err := LoadCacheRulesConfig(tmpFile, logger)

	require.NoError(t, err)
	require.NotNil(t, config)

	cacheConfig, ok := config.(*CacheConfig)
	require.True(t, ok)

	assert.Equal(t, 2, len(cacheConfig.config.TTLDefaults))

	defaultTTLs := cacheConfig.config.TTLDefaults["default"]
	assert.Equal(t, 24*time.Hour, defaultTTLs[models.CacheTypeStatic])
	assert.Equal(t, time.Hour, defaultTTLs[models.CacheTypeShort])
	assert.Equal(t, 10*time.Minute, defaultTTLs[models.CacheTypeVolatile])

	assert.Equal(t, 5*time.Minute, cacheConfig.config.TTLDefaults["anime:gogoanime"][models.CacheTypeVolatile])

	assert.Equal(t, models.CacheTypeShort, cacheConfig.config.CacheRules["search"])
	assert.Equal(t, models.CacheTypeStatic, cacheConfig.config.CacheRules["genre-list"])
	assert.Equal(t, models.CacheTypeVolatile, cacheConfig.config.CacheRules["manga:read"])

	assert.True(t, config.ShouldSkipEmptyCache("search"))
	assert.False(t, config.ShouldSkipEmptyCache("info"))
}

func TestLoadCacheRulesConfig_FileNotFound(t *testing.T) {
	logger := zaptest.NewLogger(t)

	config, err := LoadCacheRulesConfig("/nonexistent/file.yaml", logger)

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to open cache rules file")
}

func TestLoadCacheRulesConfig_InvalidYAML(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tmpFile := createTempYAMLFile(t, "ttl_defaults: [broken")

	config, err := LoadCacheRulesConfig(tmpFile, logger)

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to decode YAML cache rules")
}

func TestLoadCacheRulesConfig_InvalidCacheType(t *testing.T) {
	logger := zaptest.NewLogger(t)

	invalidYAML := `
ttl_defaults:
  default:
    short: 1h
cache_rules:
  search: "forever"
`
	tmpFile := createTempYAMLFile(t, invalidYAML)

	config, err := LoadCacheRulesConfig(tmpFile, logger)

	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "invalid cache type 'forever'")
}

func TestLoadCacheRulesConfig_ValidationErrors(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{
			name:     "missing ttl_defaults",
			content:  "cache_rules:\n  search: short\n",
			contains: "missing ttl_defaults section",
		},
		{
			name:     "missing cache_rules",
			content:  "ttl_defaults:\n  default:\n    short: 1h\n",
			contains: "missing cache_rules section",
		},
		{
			name:     "missing default scope",
			content:  "ttl_defaults:\n  anime:\n    short: 1h\ncache_rules:\n  search: short\n",
			contains: "missing ttl_defaults.default section",
		},
		{
			name:     "negative ttl",
			content:  "ttl_defaults:\n  default:\n    short: -1h\ncache_rules:\n  search: short\n",
			contains: "negative ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpFile := createTempYAMLFile(t, tt.content)

			config, err := LoadCacheRulesConfig(tmpFile, logger)

			require.Error(t, err)
			assert.Nil(t, config)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}
