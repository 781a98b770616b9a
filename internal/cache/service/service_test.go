package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"go-media-cache/internal/cache"
	"go-media-cache/internal/cache/fetch"
	"go-media-cache/internal/cache/memory"
	"go-media-cache/internal/cache/multi"
	"go-media-cache/internal/interfaces"
	"go-media-cache/internal/interfaces/mock"
	"go-media-cache/internal/metrics"
	"go-media-cache/internal/models"
)

type testDeps struct {
	service    *CacheService
	store      *memory.Store
	upstream   *mock.MockUpstream
	classifier *mock.MockCacheRulesClassifier
}

func newTestService(t *testing.T, withStore bool) *testDeps {
	ctrl := gomock.NewController(t)
	logger := zaptest.NewLogger(t)

	deps := &testDeps{
		upstream:   mock.NewMockUpstream(ctrl),
		classifier: mock.NewMockCacheRulesClassifier(ctrl),
	}

	store := mo.None[interfaces.Store]()
	if withStore {
		deps.store = memory.NewStore(0, zap.NewNop())
		t.Cleanup(func() { _ = deps.store.Close() })
		store = mo.Some[interfaces.Store](deps.store)
	}

	fetcher := fetch.NewFetcher(store, logger, fetch.WithKeyPrefix("media"))
	deps.service = NewCacheService(fetcher, deps.upstream, cache.NewKeyBuilder("media"), deps.classifier, logger)
	return deps
}

func searchRequest() *models.MediaRequest {
	return &models.MediaRequest{
		Namespace: "comics",
		Provider:  "getcomics",
		Operation: "search",
		Params:    map[string]string{"query": "batman", "page": "1"},
	}
}

func TestCacheService_Fetch_MissThenHit(t *testing.T) {
	d := newTestService(t, true)
	req := searchRequest()

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort}).Times(2)
	d.classifier.EXPECT().ShouldSkipEmptyCache("search").Return(false).Times(2)
	d.upstream.EXPECT().Fetch(gomock.Any(), req).Return(json.RawMessage(`["Batman #1","Batman #2"]`), nil).Times(1)

	resp, err := d.service.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, resp.Status)
	assert.Equal(t, "media:comics:getcomics:search:page=1:query=batman", resp.Key)
	assert.Equal(t, models.CacheTypeShort, resp.CacheType)
	assert.JSONEq(t, `["Batman #1","Batman #2"]`, string(resp.Data))

	resp, err = d.service.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusHit, resp.Status)
	assert.JSONEq(t, `["Batman #1","Batman #2"]`, string(resp.Data))
}

func TestCacheService_Fetch_UpstreamErrorNotCached(t *testing.T) {
	d := newTestService(t, true)
	req := searchRequest()
	upstreamErr := errors.New("provider returned status 503")

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort})
	d.classifier.EXPECT().ShouldSkipEmptyCache("search").Return(false)
	d.upstream.EXPECT().Fetch(gomock.Any(), req).Return(nil, upstreamErr)

	_, err := d.service.Fetch(context.Background(), req)

	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, 0, d.store.Len())
}

func TestCacheService_Fetch_NoneCacheTypeBypasses(t *testing.T) {
	d := newTestService(t, true)
	req := &models.MediaRequest{Namespace: "anime", Provider: "gogoanime", Operation: "watch", Params: map[string]string{"episodeId": "naruto-1"}}

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: 0, CacheType: models.CacheTypeNone}).Times(2)
	d.classifier.EXPECT().ShouldSkipEmptyCache("watch").Return(false).Times(2)
	d.upstream.EXPECT().Fetch(gomock.Any(), req).Return(json.RawMessage(`{"sources":[]}`), nil).Times(2)

	for i := 0; i < 2; i++ {
		resp, err := d.service.Fetch(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, models.CacheStatusBypass, resp.Status)
	}
	assert.Equal(t, 0, d.store.Len())
}

func TestCacheService_Fetch_NoStoreBypasses(t *testing.T) {
	d := newTestService(t, false)
	req := searchRequest()

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort})
	d.classifier.EXPECT().ShouldSkipEmptyCache("search").Return(false)
	d.upstream.EXPECT().Fetch(gomock.Any(), req).Return(json.RawMessage(`["Batman #1"]`), nil)

	resp, err := d.service.Fetch(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusBypass, resp.Status)
	assert.JSONEq(t, `["Batman #1"]`, string(resp.Data))
}

func TestCacheService_Fetch_SkipEmptyResult(t *testing.T) {
	d := newTestService(t, true)
	req := searchRequest()

	producerErrors := metrics.ProducerErrors.WithLabelValues(req.Namespace)
	before := testutil.ToFloat64(producerErrors)

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort}).Times(2)
	d.classifier.EXPECT().ShouldSkipEmptyCache("search").Return(true).Times(2)
	gomock.InOrder(
		d.upstream.EXPECT().Fetch(gomock.Any(), req).Return(json.RawMessage(`{"results":[]}`), nil),
		d.upstream.EXPECT().Fetch(gomock.Any(), req).Return(json.RawMessage(`{"results":[{"id":"batman-1"}]}`), nil),
	)

	resp, err := d.service.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, resp.Status)
	assert.JSONEq(t, `{"results":[]}`, string(resp.Data))
	assert.Equal(t, 0, d.store.Len(), "empty results are not stored")
	assert.Equal(t, before, testutil.ToFloat64(producerErrors), "an empty result is not a producer failure")

	resp, err = d.service.Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.CacheStatusMiss, resp.Status)
	assert.Equal(t, 1, d.store.Len())
}

func TestCacheService_Fetch_InvalidRequest(t *testing.T) {
	d := newTestService(t, true)

	_, err := d.service.Fetch(context.Background(), &models.MediaRequest{Namespace: "anime"})
	assert.Error(t, err)
}

func TestCacheService_SetGetDelete(t *testing.T) {
	d := newTestService(t, true)
	req := searchRequest()
	ctx := context.Background()

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort}).AnyTimes()

	key, err := d.service.Set(ctx, req, json.RawMessage(`["Batman #1"]`), nil)
	require.NoError(t, err)
	assert.Equal(t, "media:comics:getcomics:search:page=1:query=batman", key)

	got, err := d.service.Get(ctx, req)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.False(t, got.Bypass)
	assert.Equal(t, 3600, got.TTL)
	assert.Equal(t, "short", got.CacheType)
	assert.JSONEq(t, `["Batman #1"]`, string(got.Data))

	_, err = d.service.Delete(ctx, req)
	require.NoError(t, err)

	got, err = d.service.Get(ctx, req)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Equal(t, models.CacheLevelMiss, got.CacheLevel)
}

func TestCacheService_Set_CustomTTLAndValidation(t *testing.T) {
	d := newTestService(t, true)
	req := searchRequest()
	ctx := context.Background()

	_, err := d.service.Set(ctx, req, json.RawMessage(`{broken`), nil)
	assert.ErrorIs(t, err, ErrInvalidData)

	zero := time.Duration(0)
	_, err = d.service.Set(ctx, req, json.RawMessage(`[]`), &zero)
	require.NoError(t, err)
	assert.Equal(t, 0, d.store.Len(), "zero ttl stores nothing")

	ttl := time.Minute
	_, err = d.service.Set(ctx, req, json.RawMessage(`[1]`), &ttl)
	require.NoError(t, err)
	assert.Equal(t, 1, d.store.Len())
}

func TestCacheService_NoStore(t *testing.T) {
	d := newTestService(t, false)
	req := searchRequest()
	ctx := context.Background()

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort}).AnyTimes()

	_, err := d.service.Set(ctx, req, json.RawMessage(`[1]`), nil)
	assert.ErrorIs(t, err, ErrCacheDisabled)

	_, err = d.service.Delete(ctx, req)
	assert.ErrorIs(t, err, ErrCacheDisabled)

	got, err := d.service.Get(ctx, req)
	require.NoError(t, err)
	assert.True(t, got.Bypass)
	assert.False(t, got.Found)
}

func TestCacheService_Get_ReportsLevel(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := zaptest.NewLogger(t)
	l1 := mock.NewMockStore(ctrl)
	l2 := mock.NewMockStore(ctrl)
	classifier := mock.NewMockCacheRulesClassifier(ctrl)

	store := multi.NewMultiStore([]multi.Level{{Name: "l1", Store: l1}, {Name: "l2", Store: l2}}, false, time.Minute, logger)
	fetcher := fetch.NewFetcher(mo.Some[interfaces.Store](store), logger)
	svc := NewCacheService(fetcher, mock.NewMockUpstream(ctrl), cache.NewKeyBuilder("media"), classifier, logger)

	req := searchRequest()
	classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: time.Hour, CacheType: models.CacheTypeShort})
	l1.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, false, nil)
	l2.EXPECT().Get(gomock.Any(), gomock.Any()).Return([]byte(`["Batman #1"]`), true, nil)

	got, err := svc.Get(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, models.CacheLevelL2, got.CacheLevel)
}

func TestCacheService_GetCacheInfo(t *testing.T) {
	d := newTestService(t, true)
	req := searchRequest()

	d.classifier.EXPECT().GetTtl(req).Return(models.CacheInfo{TTL: 24 * time.Hour, CacheType: models.CacheTypeStatic})

	key, info, err := d.service.GetCacheInfo(req)

	require.NoError(t, err)
	assert.Equal(t, "media:comics:getcomics:search:page=1:query=batman", key)
	assert.Equal(t, models.CacheTypeStatic, info.CacheType)
	assert.Equal(t, 24*time.Hour, info.TTL)
}

func TestCacheService_Providers(t *testing.T) {
	d := newTestService(t, false)
	providers := []models.ProviderInfo{{Name: "getcomics", Namespace: "comics", Kind: "html"}}

	d.upstream.EXPECT().Providers().Return(providers)

	assert.Equal(t, providers, d.service.Providers())
}
