package interfaces

import "go-media-cache/internal/models"

//go:generate mockgen -package=mock -source=keybuilder.go -destination=mock/keybuilder.go

// KeyBuilder canonizes media requests into deterministic cache keys
type KeyBuilder interface {
	Build(req *models.MediaRequest) (string, error)
}
