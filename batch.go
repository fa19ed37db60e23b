package likecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batch collects the requests that missed the cache during one window.
// At most one batch is pending per cache.
type batch struct {
	slots []*slot
	timer *time.Timer
}

// slot is one caller waiting on a batch. done is buffered so completing a
// slot never blocks, even if its caller has gone away.
type slot struct {
	postID string
	done   chan result
}

type result struct {
	entry Entry
	err   error
}

func (b *batch) fail(err error) {
	for _, s := range b.slots {
		s.done <- result{err: err}
	}
}

// enqueue adds key to the pending batch, creating the batch and arming its
// timer if none is pending.
func (c *Cache) enqueue(key string) *slot {
	s := &slot{postID: key, done: make(chan result, 1)}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		b := &batch{}
		b.timer = time.AfterFunc(c.config.BatchWindow, func() { c.flush(b) })
		c.pending = b
	}
	c.pending.slots = append(c.pending.slots, s)
	return s
}

// flush detaches b and dispatches it. It does nothing if b was dropped by Clear.
func (c *Cache) flush(b *batch) {
	c.mu.Lock()
	if c.pending != b {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.mu.Unlock()

	results, err := c.dispatch(context.Background(), b.slots)
	if err != nil {
		c.logger.Error("Like status batch failed", zap.Int("batch_size", len(b.slots)), zap.Error(err))
		b.fail(err)
		return
	}

	for _, s := range b.slots {
		entry, ok := results[s.postID]
		if !ok {
			s.done <- result{err: fmt.Errorf("post %s: %w", s.postID, ErrMissingResult)}
			continue
		}
		s.done <- result{entry: entry}
	}
}

// dispatch runs one remote query per distinct post in parallel and stores
// every result. A failed query degrades to not liked with zero likes.
func (c *Cache) dispatch(ctx context.Context, slots []*slot) (map[string]Entry, error) {
	ids := distinctPostIDs(slots)
	c.config.Metrics.dispatched(len(ids))
	c.logger.Debug("Dispatching like status batch", zap.Int("batch_size", len(slots)), zap.Int("distinct_posts", len(ids)))

	var userID string
	if c.identity != nil {
		var err error
		userID, err = c.identity.CurrentUserID(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolve current user: %w", err)
		}
	}

	results := make(map[string]Entry, len(ids))
	var mu sync.Mutex

	var g errgroup.Group
	if c.config.MaxConcurrency > 0 {
		g.SetLimit(c.config.MaxConcurrency)
	}
	for _, id := range ids {
		g.Go(func() error {
			entry := c.query(ctx, id, userID)
			mu.Lock()
			results[id] = entry
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for id, entry := range results {
		stored, err := c.write(ctx, id, entry)
		if err != nil {
			c.logger.Warn("Failed to store like status", zap.String("post_id", id), zap.Error(err))
		}
		results[id] = stored
	}
	return results, nil
}

func (c *Cache) query(ctx context.Context, postID, userID string) Entry {
	qctx := ctx
	if c.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, c.config.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	likes, err := c.fetcher.GetLikes(qctx, postID)
	c.config.Metrics.remoteQuery(time.Since(start), err)
	if err != nil {
		c.logger.Warn("Remote like query failed, reporting post as not liked",
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return Entry{}
	}
	return statusFromLikes(likes, userID)
}

func distinctPostIDs(slots []*slot) []string {
	seen := make(map[string]struct{}, len(slots))
	ids := make([]string, 0, len(slots))
	for _, s := range slots {
		if _, ok := seen[s.postID]; ok {
			continue
		}
		seen[s.postID] = struct{}{}
		ids = append(ids, s.postID)
	}
	return ids
}
