package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chrisimmel/calliope-sub000/internal/api"
)

// DefaultPollInterval is the cadence of the poll fallback.
const DefaultPollInterval = 5 * time.Second

// pollSubscription synthesizes channel events from periodic story fetches.
// A frame-added event is inferred whenever the fetched frame count exceeds
// the last one seen.
type pollSubscription struct {
	fetch      StoryFetcher
	storyID    string
	handler    Handler
	interval   time.Duration
	logger     zerolog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
	closeOnce  sync.Once
	lastFrames int
	lastStatus api.StatusKind
	torndown   bool
	mu         sync.Mutex
}

func newPollSubscription(ctx context.Context, fetch StoryFetcher, storyID string, knownFrames int, h Handler, interval time.Duration, logger zerolog.Logger) *pollSubscription {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &pollSubscription{
		fetch:      fetch,
		storyID:    storyID,
		handler:    h,
		interval:   interval,
		logger:     logger,
		cancel:     cancel,
		done:       make(chan struct{}),
		lastFrames: knownFrames,
	}
	go s.loop(ctx)
	return s
}

func (s *pollSubscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torndown {
		return StateTornDown
	}
	return StatePollActive
}

// Close stops the poll loop and waits for it to exit.
func (s *pollSubscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.mu.Lock()
		s.torndown = true
		s.mu.Unlock()
	})
}

func (s *pollSubscription) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *pollSubscription) poll(ctx context.Context) {
	story, err := s.fetch.GetStory(ctx, s.storyID)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn().Err(err).Str("story_id", s.storyID).Msg("status poll failed")
		}
		return
	}
	if ctx.Err() != nil {
		return
	}

	status := synthesizeStatus(story)
	if status.Status != s.lastStatus || status.Status == api.StatusKindError {
		s.lastStatus = status.Status
		s.handler.StatusChanged(status)
	}

	frames := story.FrameCount
	if n := len(story.Frames); n > frames {
		frames = n
	}
	if frames > s.lastFrames {
		s.lastFrames = frames
		s.handler.FrameAdded(frames - 1)
	}
}

// synthesizeStatus builds a StoryStatus from the REST representation for
// stories whose status document is absent from the response.
func synthesizeStatus(story *api.Story) api.StoryStatus {
	if story.Status != nil {
		return *story.Status
	}
	count := story.FrameCount
	if n := len(story.Frames); n > count {
		count = n
	}
	return api.StoryStatus{
		Status:     api.StatusUnknown,
		FrameCount: &count,
		Title:      story.Title,
		UpdatedAt:  story.DateUpdated,
	}
}
