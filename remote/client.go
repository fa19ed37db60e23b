// Package remote implements likecache.Fetcher against the book club REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/AnandSundar/go-likecache"
	"go.uber.org/zap"
)

// maxErrorBody limits how much of a failed response is kept for diagnostics
const maxErrorBody = 512

// StatusError is returned when the API answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("likes api returned status %d: %s", e.StatusCode, e.Body)
}

// Client fetches the likes of a post over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	decorate   func(*http.Request)
	logger     *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRequestDecorator runs fn on every outgoing request, e.g. to attach the
// host application's auth header.
func WithRequestDecorator(fn func(*http.Request)) ClientOption {
	return func(c *Client) {
		c.decorate = fn
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for the API rooted at baseURL
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("remote")
	return c
}

// like mirrors likecache.Like on the wire, where user ids may be numbers.
type like struct {
	User struct {
		ID userID `json:"id"`
	} `json:"user"`
}

// userID accepts a JSON string or number and keeps its string form.
type userID string

func (u *userID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = userID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id is neither string nor number: %w", err)
	}
	*u = userID(n.String())
	return nil
}

// GetLikes calls GET {baseURL}/posts/{postID}/likes
func (c *Client) GetLikes(ctx context.Context, postID string) ([]likecache.Like, error) {
	endpoint := fmt.Sprintf("%s/posts/%s/likes", c.baseURL, url.PathEscape(postID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build likes request for post %s: %w", postID, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.decorate != nil {
		c.decorate(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get likes for post %s: %w", postID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Debug("Likes API returned an error status",
			zap.String("post_id", postID),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var wire []like
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode likes for post %s: %w", postID, err)
	}

	likes := make([]likecache.Like, len(wire))
	for i, l := range wire {
		likes[i] = likecache.Like{User: likecache.User{ID: string(l.User.ID)}}
	}
	return likes, nil
}
