// Package notify spreads like status invalidations between processes over NATS.
// A process that mutates a like publishes the post ID; every other process
// subscribed to the subject drops its cached entry for that post.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// DefaultSubject carries like change events
const DefaultSubject = "likes.changed"

// ChangedEvent is the payload published when a post's likes change
type ChangedEvent struct {
	PostID string `json:"post_id"`
	Origin string `json:"origin,omitempty"`
}

// Invalidator drops cached like status for a post. *likecache.Cache implements it.
type Invalidator interface {
	Invalidate(ctx context.Context, postID string) error
}

// Publisher announces like changes
type Publisher struct {
	nc      *nats.Conn
	subject string
	origin  string
	logger  *zap.Logger
}

// NewPublisher creates a publisher on nc. origin tags events so the
// publishing process can recognise and skip its own.
func NewPublisher(nc *nats.Conn, subject, origin string, logger *zap.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{nc: nc, subject: subject, origin: origin, logger: logger.Named("notify")}
}

// PublishChanged announces that postID's likes changed
func (p *Publisher) PublishChanged(ctx context.Context, postID string) error {
	data, err := json.Marshal(ChangedEvent{PostID: postID, Origin: p.origin})
	if err != nil {
		return fmt.Errorf("failed to marshal like change for %s: %w", p.subject, err)
	}

	if err := p.nc.Publish(p.subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", p.subject),
			zap.String("post_id", postID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish NATS message for %s: %w", p.subject, err)
	}
	p.logger.Debug("Published like change", zap.String("subject", p.subject), zap.String("post_id", postID))
	return nil
}

// Subscriber invalidates cached entries when like changes arrive
type Subscriber struct {
	cache  Invalidator
	origin string
	logger *zap.Logger
	sub    *nats.Subscription
}

// NewSubscriber creates a subscriber that invalidates entries in cache.
// Events carrying the same origin are ignored.
func NewSubscriber(cache Invalidator, origin string, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{cache: cache, origin: origin, logger: logger.Named("notify")}
}

// Start subscribes to subject on nc
func (s *Subscriber) Start(nc *nats.Conn, subject string) error {
	if subject == "" {
		subject = DefaultSubject
	}
	sub, err := nc.Subscribe(subject, s.HandleMsg)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	s.sub = sub
	s.logger.Info("Listening for like changes", zap.String("subject", subject))
	return nil
}

// Stop unsubscribes
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

// HandleMsg applies one like change event
func (s *Subscriber) HandleMsg(msg *nats.Msg) {
	var ev ChangedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		s.logger.Warn("Dropping malformed like change event", zap.String("subject", msg.Subject), zap.Error(err))
		return
	}
	if strings.TrimSpace(ev.PostID) == "" {
		s.logger.Warn("Dropping like change event without post id", zap.String("subject", msg.Subject))
		return
	}
	if s.origin != "" && ev.Origin == s.origin {
		return
	}

	if err := s.cache.Invalidate(context.Background(), ev.PostID); err != nil {
		s.logger.Error("Failed to invalidate like status", zap.String("post_id", ev.PostID), zap.Error(err))
		return
	}
	s.logger.Debug("Invalidated like status from event", zap.String("post_id", ev.PostID))
}
