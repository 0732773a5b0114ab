// Package realtime delivers story status and new-frame notifications.
// Frame generation is asynchronous on the server, so the client needs a
// near-real-time signal that content landed. The preferred transport is a
// websocket push stream; when that cannot be established the channel
// degrades to fixed-interval polling of the REST representation.
//
// Events are trigger signals only. Consumers refetch the story instead of
// trusting event payloads, which keeps them idempotent under duplicated or
// reordered delivery.
package realtime

import (
	"context"

	"github.com/chrisimmel/calliope-sub000/internal/api"
)

// State tracks a subscription through its lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StatePushActive    State = "push_active"
	StatePollActive    State = "poll_active"
	StateTornDown      State = "torn_down"
)

// Handler receives channel events. Callbacks run on the subscription's own
// goroutine; after Close returns, no further callbacks are delivered.
type Handler interface {
	StatusChanged(status api.StoryStatus)
	FrameAdded(frameNumber int)
}

// Subscription is an active status feed for a single story.
type Subscription interface {
	// State reports which transport is serving the feed.
	State() State
	// Close tears the feed down deterministically: when it returns, the
	// backing goroutine has exited and the handler will not be called
	// again. Safe to call more than once.
	Close()
}

// Channel opens status feeds for stories.
type Channel interface {
	// Subscribe starts delivering events for the story. knownFrames is the
	// frame count already held by the caller, used by the poll transport
	// to recognise frames that arrived before the first poll.
	Subscribe(ctx context.Context, storyID string, knownFrames int, h Handler) Subscription
}

// StoryFetcher is the slice of the API client the poll transport needs.
type StoryFetcher interface {
	GetStory(ctx context.Context, storyID string) (*api.Story, error)
}
