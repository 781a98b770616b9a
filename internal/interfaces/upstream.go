package interfaces

import (
	"context"
	"encoding/json"

	"go-media-cache/internal/models"
)

//go:generate mockgen -package=mock -source=upstream.go -destination=mock/upstream.go

// Upstream fetches fresh provider data on a cache miss
type Upstream interface {
	Fetch(ctx context.Context, req *models.MediaRequest) (json.RawMessage, error)
	Providers() []models.ProviderInfo
}
