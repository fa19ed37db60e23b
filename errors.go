package likecache

import "errors"

var (
	// ErrNotFound is returned by a Store when no entry exists for a key
	ErrNotFound = errors.New("like status not found")

	// ErrMissingResult is returned to a caller whose post ID is absent from a dispatched batch
	ErrMissingResult = errors.New("no result for post in batch")

	// ErrCleared is returned to callers waiting on a batch dropped by Clear
	ErrCleared = errors.New("like cache cleared while request was pending")

	// ErrEmptyPostID is returned when a post ID is empty after trimming
	ErrEmptyPostID = errors.New("post id is empty")

	// ErrInvalidLikesCount is returned when a likes count is negative
	ErrInvalidLikesCount = errors.New("likes count must not be negative")
)
