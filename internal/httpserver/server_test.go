package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/mo"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"go-media-cache/internal/auth"
	"go-media-cache/internal/cache"
	"go-media-cache/internal/cache/fetch"
	"go-media-cache/internal/cache/memory"
	"go-media-cache/internal/cache/multi"
	"go-media-cache/internal/cache/service"
	"go-media-cache/internal/config"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/interfaces/mock"
	"go-media-cache/internal/models"
	"go-media-cache/internal/upstream"
)

const (
	searchBody = `{"namespace":"comics","provider":"getcomics","operation":"search","params":{"query":"batman","page":"1"}}`
	watchBody  = `{"namespace":"anime","provider":"gogoanime","operation":"watch","params":{"episodeId":"naruto-1"}}`
	searchKey  = "media:comics:getcomics:search:page=1:query=batman"
)

type testEnv struct {
	server   *Server
	l1       *memory.Store
	l2       *memory.Store
	upstream *mock.MockUpstream
}

// setupMockCacheClassifier configures the mock cache classifier with common expectations
func setupMockCacheClassifier(ctrl *gomock.Controller) *mock.MockCacheRulesClassifier {
	mockClassifier := mock.NewMockCacheRulesClassifier(ctrl)

	mockClassifier.EXPECT().GetTtl(gomock.Any()).DoAndReturn(
		func(req *models.MediaRequest) models.CacheInfo {
			switch req.Operation {
			case "info", "genres":
				return models.CacheInfo{TTL: 24 * time.Hour, CacheType: models.CacheTypeStatic}
			case "search":
				return models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort}
			default:
				return models.CacheInfo{TTL: 0, CacheType: models.CacheTypeNone}
			}
		},
	).AnyTimes()

	mockClassifier.EXPECT().ShouldSkipEmptyCache(gomock.Any()).DoAndReturn(
		func(operation string) bool {
			return operation == "search"
		},
	).AnyTimes()

	return mockClassifier
}

// setupServer creates a server over a two level memory store
func setupServer(t *testing.T, adminSecret string) *testEnv {
	ctrl := gomock.NewController(t)
	logger := zaptest.NewLogger(t)

	env := &testEnv{
		l1:       memory.NewStore(0, zap.NewNop()),
		l2:       memory.NewStore(0, zap.NewNop()),
		upstream: mock.NewMockUpstream(ctrl),
	}
	t.Cleanup(func() {
		_ = env.l1.Close()
		_ = env.l2.Close()
	})

	store := multi.NewMultiStore([]multi.Level{{Name: "l1", Store: env.l1}, {Name: "l2", Store: env.l2}}, false, time.Minute, logger)
	fetcher := fetch.NewFetcher(mo.Some[interfaces.Store](store), logger, fetch.WithKeyPrefix("media"))
	cacheService := service.NewCacheService(fetcher, env.upstream, cache.NewKeyBuilder("media"), setupMockCacheClassifier(ctrl), logger)

	env.server = NewServer(cacheService, config.ServerConfig{Address: ":0"}, adminSecret, logger)
	return env
}

func (env *testEnv) do(method, target string, body []byte, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for name, values := range header {
		req.Header[name] = values
	}
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	return w
}

func cacheRequestBody(t *testing.T, req CacheRequest) []byte {
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	return body
}

func TestServer_HandleMedia_EmptyParamsDropped(t *testing.T) {
	env := setupServer(t, "")

	env.upstream.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req *models.MediaRequest) (json.RawMessage, error) {
			if _, ok := req.Params["sfw"]; ok {
				t.Errorf("empty param reached upstream: %v", req.Params)
			}
			return json.RawMessage(`["Batman #1"]`), nil
		},
	).Times(1)

	first := env.do("GET", "/comics/getcomics/search?query=batman&page=1&sfw=", nil, nil)
	if first.Code != http.StatusOK {
		t.Fatalf("GET status = %v, want 200: %s", first.Code, first.Body.String())
	}
	if got := first.Header().Get("X-Cache"); got != string(models.CacheStatusMiss) {
		t.Errorf("X-Cache = %v, want MISS", got)
	}

	second := env.do("GET", "/comics/getcomics/search?query=batman&page=1", nil, nil)
	if got := second.Header().Get("X-Cache"); got != string(models.CacheStatusHit) {
		t.Errorf("X-Cache = %v, want HIT for the same request without the empty param", got)
	}
}

func TestServer_HandleMedia(t *testing.T) {
	env := setupServer(t, "")

	env.upstream.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(json.RawMessage(`["Batman #1","Batman #2"]`), nil).Times(1)

	tests := []struct {
		name        string
		expectCache models.CacheStatus
	}{
		{name: "first request misses", expectCache: models.CacheStatusMiss},
		{name: "second request hits", expectCache: models.CacheStatusHit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("GET", "/comics/getcomics/search?query=batman&page=1", nil, nil)

			if w.Code != http.StatusOK {
				t.Fatalf("GET status = %v, want 200: %s", w.Code, w.Body.String())
			}
			if got := w.Header().Get("X-Cache"); got != string(tt.expectCache) {
				t.Errorf("X-Cache = %v, want %v", got, tt.expectCache)
			}

			var items []string
			if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if len(items) != 2 || items[0] != "Batman #1" || items[1] != "Batman #2" {
				t.Errorf("GET body = %v, want [Batman #1 Batman #2]", items)
			}
		})
	}

	if _, found, _ := env.l1.Get(context.Background(), searchKey); !found {
		t.Errorf("expected %s in l1", searchKey)
	}
	if _, found, _ := env.l2.Get(context.Background(), searchKey); !found {
		t.Errorf("expected %s in l2", searchKey)
	}
}

func TestServer_HandleMedia_Bypass(t *testing.T) {
	env := setupServer(t, "")

	env.upstream.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return(json.RawMessage(`{"sources":[{"url":"https://cdn.example.org/1.m3u8"}]}`), nil).Times(2)

	for i := 0; i < 2; i++ {
		w := env.do("GET", "/anime/gogoanime/watch?episodeId=naruto-1", nil, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("GET status = %v, want 200", w.Code)
		}
		if got := w.Header().Get("X-Cache"); got != string(models.CacheStatusBypass) {
			t.Errorf("X-Cache = %v, want BYPASS", got)
		}
	}
}

func TestServer_HandleMedia_Errors(t *testing.T) {
	tests := []struct {
		name           string
		upstreamErr    error
		expectedStatus int
	}{
		{name: "unknown provider", upstreamErr: fmt.Errorf("%w: comics/nope", upstream.ErrUnknownProvider), expectedStatus: http.StatusNotFound},
		{name: "unknown operation", upstreamErr: fmt.Errorf("%w: x", upstream.ErrUnknownOperation), expectedStatus: http.StatusNotFound},
		{name: "missing param", upstreamErr: fmt.Errorf("%w: id", upstream.ErrMissingParam), expectedStatus: http.StatusBadRequest},
		{name: "provider 503", upstreamErr: &upstream.StatusError{Code: 503, URL: "https://getcomics.example.org"}, expectedStatus: http.StatusBadGateway},
		{name: "provider 404", upstreamErr: &upstream.StatusError{Code: 404, URL: "https://getcomics.example.org"}, expectedStatus: http.StatusNotFound},
		{name: "timeout", upstreamErr: fmt.Errorf("request failed: %w", context.DeadlineExceeded), expectedStatus: http.StatusGatewayTimeout},
		{name: "network error", upstreamErr: errors.New("connection reset"), expectedStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupServer(t, "")
			env.upstream.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, tt.upstreamErr)

			w := env.do("GET", "/comics/getcomics/search?query=batman", nil, nil)

			if w.Code != tt.expectedStatus {
				t.Errorf("GET status = %v, want %v", w.Code, tt.expectedStatus)
			}
			if env.l1.Len() != 0 || env.l2.Len() != 0 {
				t.Errorf("failed fetch must not be cached")
			}
		})
	}
}

func TestServer_HandleProviders(t *testing.T) {
	env := setupServer(t, "")
	env.upstream.EXPECT().Providers().Return([]models.ProviderInfo{
		{Name: "gogoanime", Namespace: "anime", Kind: "json"},
		{Name: "zoro", Namespace: "anime", Kind: "json"},
		{Name: "getcomics", Namespace: "comics", Kind: "html", Operations: []string{"search"}},
	})

	w := env.do("GET", "/providers", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /providers status = %v, want 200", w.Code)
	}

	var response ProvidersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Total != 3 {
		t.Errorf("Total = %v, want 3", response.Total)
	}
	if len(response.Namespaces["anime"]) != 2 || len(response.Namespaces["comics"]) != 1 {
		t.Errorf("Namespaces = %v, want 2 anime and 1 comics", response.Namespaces)
	}
}

func TestServer_HandleGet(t *testing.T) {
	env := setupServer(t, "")

	tests := []struct {
		name                string
		requestBody         CacheRequest
		setupCache          func()
		expectedStatus      int
		expectedFound       bool
		expectedCacheStatus models.CacheStatus
		expectedLevel       models.CacheLevel
	}{
		{
			name:                "cache miss",
			requestBody:         CacheRequest{RawBody: searchBody},
			expectedStatus:      http.StatusOK,
			expectedCacheStatus: models.CacheStatusMiss,
			expectedLevel:       models.CacheLevelMiss,
		},
		{
			name:        "cache hit L1",
			requestBody: CacheRequest{RawBody: searchBody},
			setupCache: func() {
				_ = env.l1.Set(context.Background(), searchKey, []byte(`["Batman #1"]`), time.Hour)
			},
			expectedStatus:      http.StatusOK,
			expectedFound:       true,
			expectedCacheStatus: models.CacheStatusHit,
			expectedLevel:       models.CacheLevelL1,
		},
		{
			name:        "cache hit L2",
			requestBody: CacheRequest{RawBody: searchBody},
			setupCache: func() {
				_ = env.l2.Set(context.Background(), searchKey, []byte(`["Batman #1"]`), time.Hour)
			},
			expectedStatus:      http.StatusOK,
			expectedFound:       true,
			expectedCacheStatus: models.CacheStatusHit,
			expectedLevel:       models.CacheLevelL2,
		},
		{
			name:                "bypass for uncached operation",
			requestBody:         CacheRequest{RawBody: watchBody},
			expectedStatus:      http.StatusOK,
			expectedCacheStatus: models.CacheStatusBypass,
			expectedLevel:       models.CacheLevelMiss,
		},
		{
			name:           "invalid request - missing provider",
			requestBody:    CacheRequest{RawBody: `{"namespace":"comics","operation":"search"}`},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid request - empty raw body",
			requestBody:    CacheRequest{RawBody: ""},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_ = env.l1.Delete(context.Background(), searchKey)
			_ = env.l2.Delete(context.Background(), searchKey)

			if tt.setupCache != nil {
				tt.setupCache()
			}

			w := env.do("POST", "/cache/get", cacheRequestBody(t, tt.requestBody), nil)

			if w.Code != tt.expectedStatus {
				t.Errorf("handleGet() status = %v, want %v", w.Code, tt.expectedStatus)
			}

			if tt.expectedStatus == http.StatusOK {
				var response CacheResponse
				if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
					t.Fatalf("Failed to unmarshal response: %v", err)
				}

				if response.Found != tt.expectedFound {
					t.Errorf("handleGet() Found = %v, want %v", response.Found, tt.expectedFound)
				}
				if response.CacheStatus != tt.expectedCacheStatus {
					t.Errorf("handleGet() CacheStatus = %v, want %v", response.CacheStatus, tt.expectedCacheStatus)
				}
				if response.CacheLevel != tt.expectedLevel {
					t.Errorf("handleGet() CacheLevel = %v, want %v", response.CacheLevel, tt.expectedLevel)
				}
				if !response.Success {
					t.Errorf("handleGet() Success = false, want true")
				}
			}
		})
	}
}

func TestServer_HandleSetAndDelete(t *testing.T) {
	env := setupServer(t, "")

	tests := []struct {
		name           string
		path           string
		requestBody    CacheRequest
		expectedStatus int
		expectCached   bool
	}{
		{
			name:           "successful set",
			path:           "/cache/set",
			requestBody:    CacheRequest{RawBody: searchBody, Data: json.RawMessage(`["Batman #1"]`)},
			expectedStatus: http.StatusOK,
			expectCached:   true,
		},
		{
			name:           "delete",
			path:           "/cache/delete",
			requestBody:    CacheRequest{RawBody: searchBody},
			expectedStatus: http.StatusOK,
			expectCached:   false,
		},
		{
			name:           "set with custom TTL",
			path:           "/cache/set",
			requestBody:    CacheRequest{RawBody: searchBody, Data: json.RawMessage(`["Batman #2"]`), TTL: intPtr(60)},
			expectedStatus: http.StatusOK,
			expectCached:   true,
		},
		{
			name:           "invalid request - missing data",
			path:           "/cache/set",
			requestBody:    CacheRequest{RawBody: searchBody},
			expectedStatus: http.StatusBadRequest,
			expectCached:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("POST", tt.path, cacheRequestBody(t, tt.requestBody), nil)

			if w.Code != tt.expectedStatus {
				t.Errorf("%s status = %v, want %v: %s", tt.path, w.Code, tt.expectedStatus, w.Body.String())
			}

			_, found, _ := env.l1.Get(context.Background(), searchKey)
			if found != tt.expectCached {
				t.Errorf("%s cached = %v, want %v", tt.path, found, tt.expectCached)
			}
		})
	}
}

func TestServer_HandleCacheInfo(t *testing.T) {
	env := setupServer(t, "")

	w := env.do("POST", "/cache/info", cacheRequestBody(t, CacheRequest{
		RawBody: `{"namespace":"manga","provider":"mangadex","operation":"info","params":{"id":"berserk"}}`,
	}), nil)

	if w.Code != http.StatusOK {
		t.Fatalf("handleCacheInfo() status = %v, want 200", w.Code)
	}

	var response CacheResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.CacheType != "static" || response.TTL != 86400 {
		t.Errorf("handleCacheInfo() = %s/%d, want static/86400", response.CacheType, response.TTL)
	}
	if response.Key != "media:manga:mangadex:info:id=berserk" {
		t.Errorf("handleCacheInfo() Key = %v", response.Key)
	}
}

func TestServer_AdminAuth(t *testing.T) {
	env := setupServer(t, "s3cret")

	valid, _, err := auth.Generate("s3cret", "ops", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	forged, _, err := auth.Generate("other", "ops", time.Hour)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	body := cacheRequestBody(t, CacheRequest{RawBody: searchBody, Data: json.RawMessage(`["Batman #1"]`)})

	tests := []struct {
		name           string
		path           string
		authorization  string
		expectedStatus int
	}{
		{name: "set without token", path: "/cache/set", expectedStatus: http.StatusUnauthorized},
		{name: "set with basic auth", path: "/cache/set", authorization: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "set with forged token", path: "/cache/set", authorization: "Bearer " + forged, expectedStatus: http.StatusUnauthorized},
		{name: "delete without token", path: "/cache/delete", expectedStatus: http.StatusUnauthorized},
		{name: "set with valid token", path: "/cache/set", authorization: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "delete with valid token", path: "/cache/delete", authorization: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "get needs no token", path: "/cache/get", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.authorization != "" {
				header.Set("Authorization", tt.authorization)
			}

			w := env.do("POST", tt.path, body, header)

			if w.Code != tt.expectedStatus {
				t.Errorf("%s status = %v, want %v", tt.path, w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestServer_HandleHealth(t *testing.T) {
	env := setupServer(t, "")

	w := env.do("GET", "/health", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("handleHealth() status = %v, want %v", w.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("handleHealth() status = %v, want healthy", response["status"])
	}
}

func TestServer_Metrics(t *testing.T) {
	env := setupServer(t, "")

	w := env.do("GET", "/metrics", nil, nil)

	if w.Code != http.StatusOK {
		t.Errorf("GET /metrics status = %v, want 200", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("go_goroutines")) {
		t.Errorf("GET /metrics did not return prometheus output")
	}
}

func TestServer_StartStop(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := zaptest.NewLogger(t)
	fetcher := fetch.NewFetcher(mo.None[interfaces.Store](), logger)
	cacheService := service.NewCacheService(fetcher, mock.NewMockUpstream(ctrl), cache.NewKeyBuilder("media"), setupMockCacheClassifier(ctrl), logger)

	socketPath := t.TempDir() + "/cache.sock"
	server := NewServer(cacheService, config.ServerConfig{Address: "127.0.0.1:0", SocketPath: socketPath}, "", logger)

	done := make(chan error, 1)
	go func() { done <- server.Start() }()

	// give listeners a moment to come up
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v, want nil after shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

// Helper functions
func intPtr(i int) *int {
	return &i
}
