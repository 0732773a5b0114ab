package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// DefaultDialAttempts bounds the push handshake retries before the
	// channel gives up and falls back to polling.
	DefaultDialAttempts = 3
	// DefaultDialBackoff is the fixed pause between handshake attempts.
	DefaultDialBackoff = 2 * time.Second
)

// InitError reports that the push transport could not be established. It is
// not user-fatal: the connector degrades to polling and logs it.
type InitError struct {
	Attempts int
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("push stream unavailable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

type dialFunc func(ctx context.Context, url string, header http.Header) (*websocket.Conn, error)

// Connector opens per-story subscriptions, preferring the websocket push
// stream and falling back to REST polling after bounded dial retries.
type Connector struct {
	fetch        StoryFetcher
	wsBaseURL    string
	apiKey       string
	dialAttempts int
	dialBackoff  time.Duration
	pollInterval time.Duration
	logger       zerolog.Logger
	dial         dialFunc
}

// NewConnector creates a connector. wsBaseURL may be empty to force poll
// mode (no push endpoint deployed).
func NewConnector(fetch StoryFetcher, wsBaseURL, apiKey string, logger zerolog.Logger) *Connector {
	return &Connector{
		fetch:        fetch,
		wsBaseURL:    strings.TrimSuffix(wsBaseURL, "/"),
		apiKey:       apiKey,
		dialAttempts: DefaultDialAttempts,
		dialBackoff:  DefaultDialBackoff,
		pollInterval: DefaultPollInterval,
		logger:       logger.With().Str("component", "realtime").Logger(),
		dial: func(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
			return conn, err
		},
	}
}

// SetRetryPolicy overrides the dial retry count and backoff.
func (c *Connector) SetRetryPolicy(attempts int, backoff time.Duration) {
	if attempts > 0 {
		c.dialAttempts = attempts
	}
	c.dialBackoff = backoff
}

// SetPollInterval overrides the poll fallback cadence.
func (c *Connector) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		c.pollInterval = interval
	}
}

// Subscribe opens a status feed for the story. It always succeeds: if the
// push handshake fails after the bounded retries, the returned subscription
// runs in poll mode.
func (c *Connector) Subscribe(ctx context.Context, storyID string, knownFrames int, h Handler) Subscription {
	logger := c.logger.With().Str("story_id", storyID).Logger()

	if c.wsBaseURL != "" {
		header := http.Header{}
		if c.apiKey != "" {
			header.Set("X-Api-Key", c.apiKey)
		}
		streamURL := fmt.Sprintf("%s/ws/story/%s/", c.wsBaseURL, url.PathEscape(storyID))

		var lastErr error
		for attempt := 1; attempt <= c.dialAttempts; attempt++ {
			conn, err := c.dial(ctx, streamURL, header)
			if err == nil {
				logger.Debug().Int("attempt", attempt).Msg("push stream connected")
				return newPushSubscription(conn, h, logger)
			}
			lastErr = err
			logger.Debug().Err(err).Int("attempt", attempt).Msg("push handshake failed")

			if attempt < c.dialAttempts {
				select {
				case <-ctx.Done():
					attempt = c.dialAttempts
				case <-time.After(c.dialBackoff):
				}
			}
		}
		initErr := &InitError{Attempts: c.dialAttempts, Err: lastErr}
		logger.Warn().Err(initErr).Msg("falling back to status polling")
	}

	return newPollSubscription(ctx, c.fetch, storyID, knownFrames, h, c.pollInterval, logger)
}

// WSBaseURL derives the websocket endpoint from an HTTP server base URL.
func WSBaseURL(serverBaseURL string) string {
	base := strings.TrimSuffix(serverBaseURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return base
	}
}
