package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"go-media-cache/internal/config"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/models"
)

// Ensure Registry implements interfaces.Upstream
var _ interfaces.Upstream = (*Registry)(nil)

// Registry dispatches requests to the configured providers
type Registry struct {
	providers map[string]provider
	logger    *zap.Logger
}

// NewRegistry creates a provider for every config entry.
// All providers share one pooled HTTP client; timeouts are applied per request.
func NewRegistry(cfgs []config.ProviderConfig, logger *zap.Logger) (*Registry, error) {
	client := &http.Client{Transport: newTransport()}

	r := &Registry{
		providers: make(map[string]provider, len(cfgs)),
		logger:    logger,
	}

	for _, cfg := range cfgs {
		id := providerID(cfg.Namespace, cfg.Name)
		if _, dup := r.providers[id]; dup {
			return nil, fmt.Errorf("duplicate provider %s", id)
		}

		base := newBaseProvider(cfg, client)
		switch cfg.Kind {
		case "json":
			r.providers[id] = &jsonProvider{baseProvider: base}
		case "html":
			r.providers[id] = &htmlProvider{baseProvider: base}
		default:
			return nil, fmt.Errorf("provider %s: unsupported kind %q", id, cfg.Kind)
		}

		logger.Info("Registered provider",
			zap.String("provider", id),
			zap.String("kind", cfg.Kind),
			zap.Int("operations", len(cfg.Operations)))
	}

	return r, nil
}

// Fetch calls the provider named by the request
func (r *Registry) Fetch(ctx context.Context, req *models.MediaRequest) (json.RawMessage, error) {
	p, ok := r.providers[providerID(req.Namespace, req.Provider)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownProvider, req.Namespace, req.Provider)
	}
	if !operationPattern.MatchString(req.Operation) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Operation)
	}

	data, err := p.fetch(ctx, req.Operation, req.Params)
	if err != nil {
		r.logger.Warn("Provider request failed",
			zap.String("namespace", req.Namespace),
			zap.String("provider", req.Provider),
			zap.String("operation", req.Operation),
			zap.Error(err))
		return nil, err
	}
	return data, nil
}

// Providers lists configured providers ordered by namespace and name
func (r *Registry) Providers() []models.ProviderInfo {
	infos := lo.MapToSlice(r.providers, func(_ string, p provider) models.ProviderInfo {
		return p.info()
	})
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Namespace != infos[j].Namespace {
			return infos[i].Namespace < infos[j].Namespace
		}
		return infos[i].Name < infos[j].Name
	})
	return infos
}

func providerID(namespace, name string) string {
	return namespace + ":" + name
}
