package cache

import (
	"crypto/md5"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/samber/lo"

	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/models"
)

const (
	keyDelimiter = ":"
	// params segments longer than this are hashed to keep keys bounded
	maxParamsSegment = 200
)

// Ensure KeyBuilderImpl implements interfaces.KeyBuilder
var _ interfaces.KeyBuilder = (*KeyBuilderImpl)(nil)

// KeyBuilderImpl implements the KeyBuilder interface
type KeyBuilderImpl struct {
	prefix string
}

// NewKeyBuilder creates a new KeyBuilder instance.
// Keys look like prefix:namespace:provider:operation:name=value:...
func NewKeyBuilder(prefix string) interfaces.KeyBuilder {
	return &KeyBuilderImpl{prefix: prefix}
}

// Build creates a cache key for a single media request
func (kb *KeyBuilderImpl) Build(req *models.MediaRequest) (string, error) {
	if req == nil {
		return "", errors.New("request cannot be nil")
	}

	if req.Namespace == "" {
		return "", errors.New("namespace cannot be empty")
	}

	if req.Provider == "" {
		return "", errors.New("provider cannot be empty")
	}

	if req.Operation == "" {
		return "", errors.New("operation cannot be empty")
	}

	parts := make([]string, 0, 5)
	if kb.prefix != "" {
		parts = append(parts, kb.prefix)
	}
	parts = append(parts, req.Namespace, req.Provider, req.Operation)

	if params := canonicalParams(req.Params); params != "" {
		if len(params) > maxParamsSegment {
			params = fmt.Sprintf("%x", md5.Sum([]byte(params)))
		}
		parts = append(parts, params)
	}

	return strings.Join(parts, keyDelimiter), nil
}

// canonicalParams joins non-empty params ordered by name.
// Names and values are query-escaped so ':' and '=' never appear unescaped.
func canonicalParams(params map[string]string) string {
	names := lo.Filter(lo.Keys(params), func(name string, _ int) bool {
		return params[name] != ""
	})
	sort.Strings(names)

	return strings.Join(lo.Map(names, func(name string, _ int) string {
		return url.QueryEscape(name) + "=" + url.QueryEscape(params[name])
	}), keyDelimiter)
}

// Namespace returns the namespace segment of a key built by a builder with the given prefix
func Namespace(prefix, key string) string {
	if prefix != "" {
		key = strings.TrimPrefix(key, prefix+keyDelimiter)
	}
	if i := strings.Index(key, keyDelimiter); i >= 0 {
		return key[:i]
	}
	return key
}
