package likecache

import (
	"time"

	"go.uber.org/zap"
)

// Config holds cache configuration
type Config struct {
	CacheDuration  time.Duration
	BatchWindow    time.Duration
	FetchTimeout   time.Duration
	MaxConcurrency int
	Logger         *zap.Logger
	Metrics        *Metrics
	Now            func() time.Time
}

// Option is a functional option for configuring the cache
type Option func(*Config)

// WithCacheDuration sets how long an entry stays fresh after it is written
func WithCacheDuration(d time.Duration) Option {
	return func(c *Config) {
		c.CacheDuration = d
	}
}

// WithBatchWindow sets how long a batch collects requests before it is dispatched
func WithBatchWindow(d time.Duration) Option {
	return func(c *Config) {
		c.BatchWindow = d
	}
}

// WithFetchTimeout bounds each remote like query
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.FetchTimeout = d
	}
}

// WithMaxConcurrency caps the remote queries run at once for a batch.
// Zero or less means no cap.
func WithMaxConcurrency(n int) Option {
	return func(c *Config) {
		c.MaxConcurrency = n
	}
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithMetrics attaches Prometheus metrics to the cache
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithClock replaces time.Now, mainly for tests that simulate time
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}
