package utils

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go-media-cache/internal/models"
)

// ParseMediaRequest parses a raw media request body
func ParseMediaRequest(rawBody string) (*models.MediaRequest, error) {
	if rawBody == "" {
		return nil, fmt.Errorf("empty request body")
	}

	var request models.MediaRequest
	if err := json.Unmarshal([]byte(rawBody), &request); err != nil {
		return nil, fmt.Errorf("failed to parse media request: %w", err)
	}

	if request.Namespace == "" || request.Provider == "" || request.Operation == "" {
		return nil, fmt.Errorf("namespace, provider and operation are required")
	}

	return &request, nil
}

// IsEmptyResult reports whether a provider result carries no data:
// null, an empty string, array or object, or an object whose "results" list is empty
func IsEmptyResult(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return true
	}

	switch string(trimmed) {
	case "null", `""`, "[]", "{}":
		return true
	}

	if trimmed[0] != '{' {
		return false
	}

	var envelope struct {
		Results json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || envelope.Results == nil {
		return false
	}

	results := bytes.TrimSpace(envelope.Results)
	return string(results) == "[]" || string(results) == "null"
}
