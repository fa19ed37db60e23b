package likecache_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AnandSundar/go-likecache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMutationHandler(t *testing.T, cache *likecache.Cache, status int, body string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	handler := likecache.Middleware(cache, likecache.PathPostID("postID"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	mux.Handle("/posts/{postID}/like", handler)
	return mux
}

func TestMiddleware_AppliesMutationResult(t *testing.T) {
	cache, _, _ := newTestCache(t, new(MockFetcher))
	handler := newMutationHandler(t, cache, http.StatusOK, `{"liked":true,"likes_count":6}`)

	req := httptest.NewRequest(http.MethodPost, "/posts/42/like", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"liked":true,"likes_count":6}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "updated", rec.Header().Get(likecache.CacheHeaderName))

	entry, ok := cache.GetCached(context.Background(), "42")
	require.True(t, ok)
	assert.True(t, entry.UserLiked)
	assert.Equal(t, 6, entry.LikesCount)
}

func TestMiddleware_UnlikeWithoutBodyInvalidates(t *testing.T) {
	cache, _, _ := newTestCache(t, new(MockFetcher))
	require.NoError(t, cache.UpdateLikeStatus(context.Background(), "42", true, 6))
	handler := newMutationHandler(t, cache, http.StatusNoContent, "")

	req := httptest.NewRequest(http.MethodDelete, "/posts/42/like", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "invalidated", rec.Header().Get(likecache.CacheHeaderName))

	_, ok := cache.GetCached(context.Background(), "42")
	assert.False(t, ok)
}

func TestMiddleware_FailedMutationLeavesCache(t *testing.T) {
	cache, _, _ := newTestCache(t, new(MockFetcher))
	require.NoError(t, cache.UpdateLikeStatus(context.Background(), "42", false, 3))
	handler := newMutationHandler(t, cache, http.StatusConflict, `{"error":"already liked"}`)

	req := httptest.NewRequest(http.MethodPost, "/posts/42/like", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, rec.Header().Get(likecache.CacheHeaderName))

	entry, ok := cache.GetCached(context.Background(), "42")
	require.True(t, ok)
	assert.Equal(t, 3, entry.LikesCount)
}

func TestMiddleware_InvalidCountInvalidates(t *testing.T) {
	cache, _, _ := newTestCache(t, new(MockFetcher))
	require.NoError(t, cache.UpdateLikeStatus(context.Background(), "42", false, 3))
	handler := newMutationHandler(t, cache, http.StatusOK, `{"liked":true,"likes_count":-1}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/posts/42/like", nil))

	assert.Equal(t, "invalidated", rec.Header().Get(likecache.CacheHeaderName))
	_, ok := cache.GetCached(context.Background(), "42")
	assert.False(t, ok)
}

func TestMiddleware_ReadsPassThrough(t *testing.T) {
	cache, _, _ := newTestCache(t, new(MockFetcher))
	require.NoError(t, cache.UpdateLikeStatus(context.Background(), "42", false, 3))
	handler := newMutationHandler(t, cache, http.StatusOK, `{"liked":true,"likes_count":6}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts/42/like", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(likecache.CacheHeaderName))

	entry, ok := cache.GetCached(context.Background(), "42")
	require.True(t, ok)
	assert.Equal(t, 3, entry.LikesCount)
}

func TestMiddleware_NoPostIDPassesThrough(t *testing.T) {
	cache, _, _ := newTestCache(t, new(MockFetcher))
	handler := likecache.Middleware(cache, likecache.PathPostID("postID"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/likes", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get(likecache.CacheHeaderName))
}
