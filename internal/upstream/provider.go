package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/samber/lo"

	"go-media-cache/internal/config"
	"go-media-cache/internal/models"
)

// provider fetches one operation from one upstream site or API
type provider interface {
	info() models.ProviderInfo
	fetch(ctx context.Context, operation string, params map[string]string) (json.RawMessage, error)
}

type baseProvider struct {
	name       string
	namespace  string
	kind       string
	baseURL    string
	timeout    time.Duration
	headers    map[string]string
	operations map[string]config.OperationConfig
	client     *http.Client
}

func newBaseProvider(cfg config.ProviderConfig, client *http.Client) baseProvider {
	return baseProvider{
		name:       cfg.Name,
		namespace:  cfg.Namespace,
		kind:       cfg.Kind,
		baseURL:    cfg.BaseURL,
		timeout:    cfg.Timeout,
		headers:    cfg.Headers,
		operations: cfg.Operations,
		client:     client,
	}
}

func (p *baseProvider) info() models.ProviderInfo {
	ops := lo.Keys(p.operations)
	sort.Strings(ops)
	return models.ProviderInfo{
		Name:       p.name,
		Namespace:  p.namespace,
		Kind:       p.kind,
		Operations: ops,
	}
}

// jsonProvider passes JSON responses through untouched.
// Without configured operations any operation name is forwarded as a path segment.
type jsonProvider struct {
	baseProvider
}

func (p *jsonProvider) fetch(ctx context.Context, operation string, params map[string]string) (json.RawMessage, error) {
	var pathTemplate string
	if len(p.operations) > 0 {
		op, ok := p.operations[operation]
		if !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownOperation, p.name, operation)
		}
		pathTemplate = op.Path
	}

	target, err := buildURL(p.baseURL, operation, pathTemplate, params)
	if err != nil {
		return nil, err
	}

	body, err := p.get(ctx, target)
	if err != nil {
		return nil, err
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("provider %s returned invalid JSON for %s", p.name, operation)
	}
	return json.RawMessage(body), nil
}
