// Package likecache provides a per-process cache for the like status of posts:
// whether the current user liked a post and how many likes it has.
//
// Lookups that miss the cache are collected for a short window and sent to
// the remote like query as one round of parallel requests, so rendering a feed
// of twenty posts costs one round trip instead of twenty sequential ones.
package likecache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultCacheDuration is how long an entry stays fresh after it is written
	DefaultCacheDuration = 5 * time.Minute
	// DefaultBatchWindow is how long a batch collects requests before dispatch
	DefaultBatchWindow = 100 * time.Millisecond
	// DefaultFetchTimeout bounds each remote like query
	DefaultFetchTimeout = 10 * time.Second
)

// Cache answers like status lookups from a Store and batches misses to a Fetcher.
// Construct one per application and pass it to whatever needs it.
type Cache struct {
	store    Store
	fetcher  Fetcher
	identity Identity
	config   *Config
	logger   *zap.Logger

	mu      sync.Mutex
	pending *batch
}

// New creates a cache over store that resolves misses with fetcher.
// identity tells the cache who the current user is; nil means anonymous,
// in which case UserLiked is always false.
func New(store Store, fetcher Fetcher, identity Identity, opts ...Option) *Cache {
	config := &Config{
		CacheDuration: DefaultCacheDuration,
		BatchWindow:   DefaultBatchWindow,
		FetchTimeout:  DefaultFetchTimeout,
		Logger:        zap.NewNop(),
		Now:           time.Now,
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &Cache{
		store:    store,
		fetcher:  fetcher,
		identity: identity,
		config:   config,
		logger:   config.Logger.Named("likecache"),
	}
}

// Request returns the like status of postID. A fresh cached entry is returned
// at once; otherwise the request joins the pending batch and waits for it.
// Cancelling ctx stops the wait but the post is still queried with its batch.
func (c *Cache) Request(ctx context.Context, postID string) (Entry, error) {
	key, err := normalizeKey(postID)
	if err != nil {
		return Entry{}, err
	}

	if entry, ok := c.lookup(ctx, key); ok {
		c.config.Metrics.hit()
		return entry, nil
	}
	c.config.Metrics.miss()

	s := c.enqueue(key)
	select {
	case res := <-s.done:
		return res.entry, res.err
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

// RequestMany looks up several posts at once. All misses land in the same
// batch window. The result is keyed by normalized post ID.
func (c *Cache) RequestMany(ctx context.Context, postIDs []string) (map[string]Entry, error) {
	results := make(map[string]Entry, len(postIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range postIDs {
		g.Go(func() error {
			entry, err := c.Request(gctx, id)
			if err != nil {
				return fmt.Errorf("like status for post %q: %w", id, err)
			}
			mu.Lock()
			results[strings.TrimSpace(id)] = entry
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetCached returns the entry for postID only if it is still fresh.
// Stale entries are reported absent but left in the store.
func (c *Cache) GetCached(ctx context.Context, postID string) (Entry, bool) {
	key, err := normalizeKey(postID)
	if err != nil {
		return Entry{}, false
	}
	return c.lookup(ctx, key)
}

// UpdateLikeStatus records the outcome of the user's own like or unlike,
// bypassing the batch and the remote query.
func (c *Cache) UpdateLikeStatus(ctx context.Context, postID string, userLiked bool, likesCount int) error {
	key, err := normalizeKey(postID)
	if err != nil {
		return err
	}
	if likesCount < 0 {
		return ErrInvalidLikesCount
	}
	_, err = c.write(ctx, key, Entry{UserLiked: userLiked, LikesCount: likesCount})
	return err
}

// Invalidate drops the entry for postID so the next lookup misses.
func (c *Cache) Invalidate(ctx context.Context, postID string) error {
	key, err := normalizeKey(postID)
	if err != nil {
		return err
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("invalidate like status for post %s: %w", key, err)
	}
	return nil
}

// Clear drops every entry and cancels the pending batch. Callers waiting on
// that batch receive ErrCleared. A batch already dispatched runs to completion.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	b := c.pending
	c.pending = nil
	if b != nil {
		b.timer.Stop()
	}
	c.mu.Unlock()

	if b != nil {
		c.logger.Debug("Dropping pending like status batch", zap.Int("batch_size", len(b.slots)))
		b.fail(ErrCleared)
	}

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear like status store: %w", err)
	}
	return nil
}

// Pending reports how many requests are waiting in the current batch.
func (c *Cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return 0
	}
	return len(c.pending.slots)
}

func (c *Cache) lookup(ctx context.Context, key string) (Entry, bool) {
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("Failed to read like status from store", zap.String("post_id", key), zap.Error(err))
		}
		return Entry{}, false
	}
	if c.config.Now().Sub(entry.LastChecked) >= c.config.CacheDuration {
		return Entry{}, false
	}
	return *entry, true
}

// write stamps entry with the current time and overwrites the stored value.
func (c *Cache) write(ctx context.Context, key string, entry Entry) (Entry, error) {
	entry.LastChecked = c.config.Now()
	if err := c.store.Set(ctx, key, &entry); err != nil {
		return entry, fmt.Errorf("write like status for post %s: %w", key, err)
	}
	return entry, nil
}

func normalizeKey(postID string) (string, error) {
	key := strings.TrimSpace(postID)
	if key == "" {
		return "", ErrEmptyPostID
	}
	return key, nil
}
