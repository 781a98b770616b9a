package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-media-cache/internal/cache/service"
	"go-media-cache/internal/models"
	"go-media-cache/internal/utils"
)

// parseCacheRequest decodes the body and the media request embedded in raw_body
func (s *Server) parseCacheRequest(w http.ResponseWriter, r *http.Request) (*CacheRequest, *models.MediaRequest, bool) {
	var req CacheRequest
	if err := s.parseRequest(r, &req); err != nil {
		s.writeErrorResponse(w, "Invalid request", http.StatusBadRequest)
		return nil, nil, false
	}

	if req.RawBody == "" {
		s.writeErrorResponse(w, "Missing required field: raw_body", http.StatusBadRequest)
		return nil, nil, false
	}

	mediaReq, err := utils.ParseMediaRequest(req.RawBody)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Invalid media request: %v", err), http.StatusBadRequest)
		return nil, nil, false
	}
	return &req, mediaReq, true
}

// handleGet handles GET cache requests
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	_, mediaReq, ok := s.parseCacheRequest(w, r)
	if !ok {
		return
	}

	result, err := s.cacheService.Get(r.Context(), mediaReq)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusBadRequest)
		return
	}

	// Determine cache status
	var cacheStatus models.CacheStatus
	if result.Bypass {
		cacheStatus = models.CacheStatusBypass
	} else if result.Found {
		cacheStatus = models.CacheStatusHit
	} else {
		cacheStatus = models.CacheStatusMiss
	}

	s.writeResponse(w, &CacheResponse{
		Success:     true,
		Found:       result.Found,
		Data:        result.Data,
		Key:         result.Key,
		CacheType:   result.CacheType,
		TTL:         result.TTL,
		CacheStatus: cacheStatus,
		CacheLevel:  result.CacheLevel,
	})
}

// handleSet handles SET cache requests
func (s *Server) handleSet(w http.ResponseWriter, r *http.Request) {
	req, mediaReq, ok := s.parseCacheRequest(w, r)
	if !ok {
		return
	}

	if len(req.Data) == 0 {
		s.writeErrorResponse(w, "Missing required field: data", http.StatusBadRequest)
		return
	}

	var ttl *time.Duration
	if req.TTL != nil {
		d := time.Duration(*req.TTL) * time.Second
		ttl = &d
	}

	key, err := s.cacheService.Set(r.Context(), mediaReq, req.Data, ttl)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), cacheErrorStatus(err))
		return
	}

	s.writeResponse(w, &CacheResponse{
		Success: true,
		Key:     key,
	})
}

// handleDelete handles DELETE cache requests
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	_, mediaReq, ok := s.parseCacheRequest(w, r)
	if !ok {
		return
	}

	key, err := s.cacheService.Delete(r.Context(), mediaReq)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), cacheErrorStatus(err))
		return
	}

	s.writeResponse(w, &CacheResponse{
		Success: true,
		Key:     key,
	})
}

// handleCacheInfo handles cache info requests (equivalent to cache rules check)
func (s *Server) handleCacheInfo(w http.ResponseWriter, r *http.Request) {
	_, mediaReq, ok := s.parseCacheRequest(w, r)
	if !ok {
		return
	}

	key, info, err := s.cacheService.GetCacheInfo(mediaReq)
	if err != nil {
		s.writeErrorResponse(w, fmt.Sprintf("Cache service error: %v", err), http.StatusBadRequest)
		return
	}

	s.writeResponse(w, &CacheResponse{
		Success:   true,
		Key:       key,
		CacheType: string(info.CacheType),
		TTL:       int(info.TTL.Seconds()),
	})
}

func cacheErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidData):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCacheDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
