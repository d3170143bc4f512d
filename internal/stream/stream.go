// Package stream subscribes to the backend's server-sent bracket events.
//
// A subscription is one HTTP connection. When it errors or the server ends
// it, the subscription is over: there is no reconnect.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/r3labs/sse/v2"
	"gopkg.in/cenkalti/backoff.v1"
)

// DefaultPath is the bracket stream endpoint.
const DefaultPath = "/api/bracket/stream"

// EventBracket is the event name that carries a full bracket snapshot.
const EventBracket = "bracket"

// Message is one received event.
type Message struct {
	Event string
	Data  []byte
}

// Handler receives messages in arrival order on the subscription's
// goroutine.
type Handler func(Message)

// Subscriber opens push subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, h Handler) error
}

// SSE subscribes over server-sent events.
type SSE struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// Option configures an SSE subscriber.
type Option func(*SSE)

// WithHTTPClient sets the client used for the stream connection. It must
// not have a request timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *SSE) {
		s.client = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *SSE) {
		s.logger = l
	}
}

// NewSSE creates a subscriber for baseURL+path. An empty path means
// DefaultPath.
func NewSSE(baseURL, path string, opts ...Option) *SSE {
	if path == "" {
		path = DefaultPath
	}
	s := &SSE{
		url:    strings.TrimRight(baseURL, "/") + path,
		client: &http.Client{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// URL returns the stream endpoint.
func (s *SSE) URL() string {
	return s.url
}

// Subscribe blocks, delivering every event to h, until the stream ends, the
// connection fails or ctx is done. A clean end of stream and a cancelled
// ctx return nil.
func (s *SSE) Subscribe(ctx context.Context, h Handler) error {
	c := sse.NewClient(s.url)
	c.Connection = s.client
	// One connection attempt only.
	c.ReconnectStrategy = &backoff.StopBackOff{}

	s.logger.Debug("bracket stream connecting", "url", s.url)
	err := c.SubscribeRawWithContext(ctx, func(ev *sse.Event) {
		if ev == nil {
			return
		}
		h(Message{Event: string(ev.Event), Data: ev.Data})
	})

	switch {
	case ctx.Err() != nil:
		return nil
	case err != nil:
		return fmt.Errorf("bracket stream: %w", err)
	}
	s.logger.Debug("bracket stream ended by server", "url", s.url)
	return nil
}
