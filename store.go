package likecache

import (
	"context"
	"time"
)

// Store defines the interface for storing and retrieving like status entries.
// Stores never judge freshness; that is the cache's job.
type Store interface {
	// Get retrieves an entry by key, or ErrNotFound
	Get(ctx context.Context, key string) (*Entry, error)

	// Set overwrites the entry for key
	Set(ctx context.Context, key string, entry *Entry) error

	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry owned by the store
	Clear(ctx context.Context) error
}

// Entry is the last known like status of one post.
type Entry struct {
	UserLiked   bool      `json:"user_liked"`
	LikesCount  int       `json:"likes_count"`
	LastChecked time.Time `json:"last_checked"`
}
