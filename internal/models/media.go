package models

// MediaRequest identifies a logical provider request.
// Every field that changes the upstream result must be part of the request so
// that distinct requests never share a cache key.
type MediaRequest struct {
	Namespace string            `json:"namespace"`
	Provider  string            `json:"provider"`
	Operation string            `json:"operation"`
	Params    map[string]string `json:"params,omitempty"`
}

// ProviderInfo describes a configured provider
type ProviderInfo struct {
	Name       string   `json:"name"`
	Namespace  string   `json:"namespace"`
	Kind       string   `json:"kind"`
	Operations []string `json:"operations,omitempty"`
}
