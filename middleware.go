package likecache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// CacheHeaderName is set on mutation responses to report what the middleware did
const CacheHeaderName = "X-Like-Cache"

// PostIDFunc extracts the post ID a like or unlike request targets
type PostIDFunc func(r *http.Request) (string, error)

// MutationResult is the response body of a like or unlike call that the
// middleware understands.
type MutationResult struct {
	Liked      *bool `json:"liked"`
	LikesCount *int  `json:"likes_count"`
}

var errNoPostID = errors.New("no post id in request")

// PathPostID reads the post ID from the named path wildcard (see http.ServeMux patterns)
func PathPostID(name string) PostIDFunc {
	return func(r *http.Request) (string, error) {
		id := r.PathValue(name)
		if id == "" {
			return "", errNoPostID
		}
		return id, nil
	}
}

// Middleware returns an HTTP middleware for the host's like and unlike routes.
// After a successful mutation it writes the reported status into the cache,
// or invalidates the post when the response body does not carry one.
// Failed mutations leave the cache untouched.
func Middleware(cache *Cache, postIDFunc PostIDFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Reads never change like status
			if !isMutatingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			postID, err := postIDFunc(r)
			if err != nil || postID == "" {
				next.ServeHTTP(w, r)
				return
			}

			// Capture response
			recorder := &responseRecorder{
				header:     make(http.Header),
				statusCode: http.StatusOK,
				body:       &bytes.Buffer{},
			}

			next.ServeHTTP(recorder, r)

			if outcome := applyMutation(r.Context(), cache, postID, recorder); outcome != "" {
				recorder.header.Set(CacheHeaderName, outcome)
			}
			writeRecordedResponse(w, recorder)
		})
	}
}

// applyMutation feeds a recorded like or unlike response into the cache and
// reports what it did, or "" when the response was not a success.
func applyMutation(ctx context.Context, cache *Cache, postID string, rec *responseRecorder) string {
	if rec.statusCode < 200 || rec.statusCode >= 300 {
		return ""
	}

	var res MutationResult
	if err := json.Unmarshal(rec.body.Bytes(), &res); err == nil && res.Liked != nil && res.LikesCount != nil {
		err = cache.UpdateLikeStatus(ctx, postID, *res.Liked, *res.LikesCount)
		if err == nil {
			return "updated"
		}
		cache.logger.Warn("Failed to apply like mutation to cache", zap.String("post_id", postID), zap.Error(err))
	}

	if err := cache.Invalidate(ctx, postID); err != nil {
		cache.logger.Warn("Failed to invalidate like status after mutation", zap.String("post_id", postID), zap.Error(err))
		return ""
	}
	return "invalidated"
}

// writeRecordedResponse replays a recorded response to the client
func writeRecordedResponse(w http.ResponseWriter, rec *responseRecorder) {
	for key, values := range rec.header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(rec.statusCode)
	w.Write(rec.body.Bytes())
}

// isMutatingMethod returns true for HTTP methods that can change like status
func isMutatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// responseRecorder holds the whole response until the cache has been updated
type responseRecorder struct {
	header     http.Header
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) Header() http.Header {
	return r.header
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	return r.body.Write(b)
}
