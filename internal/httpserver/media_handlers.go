package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"go-media-cache/internal/models"
	"go-media-cache/internal/upstream"
)

// handleMedia serves GET /{namespace}/{provider}/{operation} through the cache
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	req := &models.MediaRequest{
		Namespace: vars["namespace"],
		Provider:  vars["provider"],
		Operation: vars["operation"],
		// an empty value is the same request as no value
		Params: lo.OmitByValues(lo.MapValues(r.URL.Query(), func(values []string, _ string) string {
			return values[0]
		}), []string{""}),
	}

	resp, err := s.cacheService.Fetch(r.Context(), req)
	if err != nil {
		status := fetchErrorStatus(err)
		s.logger.Warn("Fetch failed",
			zap.String("namespace", req.Namespace),
			zap.String("provider", req.Provider),
			zap.String("operation", req.Operation),
			zap.Int("status", status),
			zap.Error(err))
		s.writeErrorResponse(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", string(resp.Status))
	if _, err := w.Write(resp.Data); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// handleProviders lists the configured providers grouped by namespace
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	providers := s.cacheService.Providers()

	s.writeResponse(w, &ProvidersResponse{
		Namespaces: lo.GroupBy(providers, func(p models.ProviderInfo) string {
			return p.Namespace
		}),
		Total: len(providers),
	})
}

// fetchErrorStatus maps provider errors to the status returned to clients
func fetchErrorStatus(err error) int {
	var statusErr *upstream.StatusError
	switch {
	case errors.Is(err, upstream.ErrUnknownProvider), errors.Is(err, upstream.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, upstream.ErrMissingParam):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
