// Package story holds the synchronization core: one authoritative view of
// the current story, its frames, and the selected frame, reconciled from
// user-initiated fetches and realtime channel events.
//
// Two rules keep the core consistent without fine-grained coordination:
// frame lists sourced from the backend always replace the local list
// wholesale (never append or merge), and channel events are treated as
// refetch triggers rather than data. Duplicate or reordered delivery is
// therefore harmless.
package story

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chrisimmel/calliope-sub000/internal/api"
	"github.com/chrisimmel/calliope-sub000/internal/capture"
	"github.com/chrisimmel/calliope-sub000/internal/realtime"
)

// DefaultRetryDelay is how long after a frame submission the session waits
// before refetching on its own, covering a missed frame-added event.
const DefaultRetryDelay = 45 * time.Second

// API is the slice of the REST client the session uses.
type API interface {
	GetStory(ctx context.Context, storyID string) (*api.Story, error)
	GetStoryBySlug(ctx context.Context, slug string) (*api.Story, error)
	CreateStory(ctx context.Context, req api.FrameRequest) (*api.CreateStoryResponse, error)
	AddFrame(ctx context.Context, storyID string, req api.FrameRequest) (*api.AddFrameResponse, error)
	ResetCurrentStory(ctx context.Context) error
	NewFrameRequest(snippets []api.Snippet, strategy string, generateVideo bool) api.FrameRequest
}

// Ref identifies a story by id or slug.
type Ref struct {
	ID   string
	Slug string
}

// Snapshot is the immutable view of session state handed to listeners.
type Snapshot struct {
	StoryID       string
	Title         string
	Slug          string
	IsReadOnly    bool
	Frames        []api.Frame
	SelectedFrame int
	IsLoading     bool
	IsSubmitting  bool
	LastStatus    *api.StoryStatus
	// Err is the single user-visible error slot: the latest failure,
	// cleared by the next successful operation.
	Err string
	// HardJump marks the last navigation as a non-paging jump (load or
	// realtime update), so the view skips the transition animation.
	HardJump bool
}

// Listener observes session state changes.
type Listener func(Snapshot)

// Options tune a session.
type Options struct {
	Strategy      string
	GenerateVideo bool
	RetryDelay    time.Duration
}

// Session reconciles local navigation, in-flight submissions and realtime
// events into a single current-story view. All state mutation happens
// under one lock; timers and the channel subscription are fields of the
// instance, so independent sessions cannot interfere with each other.
type Session struct {
	api           API
	channel       realtime.Channel
	logger        zerolog.Logger
	strategy      string
	generateVideo bool
	retryDelay    time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	storyID    string
	title      string
	slug       string
	readOnly   bool
	frames     []api.Frame
	carousel   Carousel
	loading    bool
	submitting bool
	hardJump   bool
	lastStatus *api.StoryStatus
	errMsg     string
	sub        realtime.Subscription
	retryTimer *time.Timer
	listeners  []Listener
}

// NewSession creates a session. channel may be nil for one-shot operations
// that do not need realtime updates.
func NewSession(apiClient API, channel realtime.Channel, opts Options, logger zerolog.Logger) *Session {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		api:           apiClient,
		channel:       channel,
		logger:        logger.With().Str("component", "story").Logger(),
		strategy:      opts.Strategy,
		generateVideo: opts.GenerateVideo,
		retryDelay:    opts.RetryDelay,
		ctx:           ctx,
		cancel:        cancel,
		carousel:      NewCarousel(0),
	}
}

// AddListener registers a state-change observer.
func (s *Session) AddListener(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		StoryID:       s.storyID,
		Title:         s.title,
		Slug:          s.slug,
		IsReadOnly:    s.readOnly,
		Frames:        s.frames,
		SelectedFrame: s.carousel.Selected(),
		IsLoading:     s.loading,
		IsSubmitting:  s.submitting,
		LastStatus:    s.lastStatus,
		Err:           s.errMsg,
		HardJump:      s.hardJump,
	}
}

func (s *Session) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, l := range listeners {
		l(snap)
	}
}

// LoadStory fetches a story and replaces the local frame list wholesale.
// frameNumber selects a frame, clamped into range; pass NoFrame to keep
// the current selection on a refetch, or land on the last frame of a
// newly loaded story. Failures keep previously loaded frames: a stale view
// with an error banner beats a blank one.
func (s *Session) LoadStory(ctx context.Context, ref Ref, frameNumber int) error {
	s.mu.Lock()
	isRefetch := ref.ID != "" && ref.ID == s.storyID
	s.loading = true
	s.mu.Unlock()
	s.notify()

	story, err := s.fetchStory(ctx, ref)
	if err != nil {
		s.mu.Lock()
		s.loading = false
		s.errMsg = err.Error()
		s.mu.Unlock()
		s.notify()
		return err
	}

	s.mu.Lock()
	if isRefetch && s.storyID != ref.ID {
		// The user switched stories while this refetch was in flight;
		// its result belongs to the old story.
		s.loading = false
		s.mu.Unlock()
		s.notify()
		return nil
	}

	sameStory := s.storyID == story.ID
	var prevSub realtime.Subscription
	if !sameStory {
		prevSub = s.sub
		s.sub = nil
		s.stopRetryTimerLocked()
		s.submitting = false
		s.lastStatus = nil
	}

	grew := len(story.Frames) > len(s.frames)
	s.storyID = story.ID
	s.title = story.Title
	s.slug = story.Slug
	s.readOnly = story.IsReadOnly
	s.frames = story.Frames
	if story.Status != nil {
		s.lastStatus = story.Status
	}

	prev := s.carousel
	s.carousel = NewCarousel(0).Resize(len(story.Frames), len(story.Frames)-1)
	switch {
	case frameNumber != NoFrame:
		s.carousel, _ = s.carousel.Select(frameNumber)
	case sameStory && prev.Selected() != NoFrame:
		// A refetch triggered by a status change must not jump the
		// user's position.
		s.carousel, _ = s.carousel.Select(prev.Selected())
	}

	s.loading = false
	s.errMsg = ""
	s.hardJump = true
	if grew {
		s.submitting = false
	}
	needSub := s.sub == nil && s.channel != nil
	storyID := s.storyID
	knownFrames := len(s.frames)
	s.mu.Unlock()

	if prevSub != nil {
		prevSub.Close()
	}
	if needSub {
		s.subscribe(storyID, knownFrames)
	}
	s.notify()
	return nil
}

func (s *Session) fetchStory(ctx context.Context, ref Ref) (*api.Story, error) {
	if ref.ID != "" {
		return s.api.GetStory(ctx, ref.ID)
	}
	if ref.Slug == "" {
		return nil, errors.New("story reference is empty")
	}
	// The slug endpoint resolves the id; the frame list comes from the
	// full fetch.
	story, err := s.api.GetStoryBySlug(ctx, ref.Slug)
	if err != nil {
		return nil, err
	}
	return s.api.GetStory(ctx, story.ID)
}

// SubmitFrame sends captured media to the backend and returns immediately;
// the resulting frame arrives later through the realtime channel. When no
// story exists yet, the submission creates one, and the channel attaches
// as soon as the new id is known so no early event is missed. Only one
// submission is in flight at a time: any pending retry timer is cancelled
// before a new request is issued.
func (s *Session) SubmitFrame(ctx context.Context, photo, audio *capture.Media) error {
	var image, sound []byte
	if photo != nil {
		image = photo.Data
	}
	if audio != nil {
		sound = audio.Data
	}
	snippets := api.CreateSnippets(image, sound)
	if len(snippets) == 0 {
		return errors.New("nothing to submit: no photo or audio captured")
	}

	s.mu.Lock()
	if s.readOnly {
		s.mu.Unlock()
		return errors.New("story is read-only")
	}
	s.stopRetryTimerLocked()
	s.submitting = true
	s.errMsg = ""
	storyID := s.storyID
	req := s.api.NewFrameRequest(snippets, s.strategy, s.generateVideo)
	s.mu.Unlock()
	s.notify()

	go s.submit(ctx, storyID, req)
	return nil
}

func (s *Session) submit(ctx context.Context, storyID string, req api.FrameRequest) {
	if storyID == "" {
		resp, err := s.api.CreateStory(ctx, req)
		if err != nil {
			s.failSubmission(err)
			return
		}

		s.mu.Lock()
		if s.storyID != "" && s.storyID != resp.StoryID {
			// The user navigated to another story while the creation
			// was in flight; the new story stays on the server.
			s.mu.Unlock()
			s.logger.Warn().Str("story_id", resp.StoryID).Msg("dropping story created during navigation")
			return
		}
		// Store the id before any frame content is confirmed so the
		// realtime channel can start listening without a race.
		s.storyID = resp.StoryID
		needSub := s.channel != nil && s.sub == nil
		s.mu.Unlock()

		if needSub {
			s.subscribe(resp.StoryID, 0)
		}
		s.notify()
		s.scheduleRetry(resp.StoryID)
		return
	}

	if _, err := s.api.AddFrame(ctx, storyID, req); err != nil {
		s.failSubmission(err)
		return
	}
	s.scheduleRetry(storyID)
}

func (s *Session) failSubmission(err error) {
	s.logger.Warn().Err(err).Msg("frame submission failed")
	s.mu.Lock()
	s.submitting = false
	s.errMsg = err.Error()
	s.mu.Unlock()
	s.notify()
}

// scheduleRetry arms the per-story fallback refetch timer. At most one is
// live at a time.
func (s *Session) scheduleRetry(storyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.storyID != storyID {
		return
	}
	s.stopRetryTimerLocked()
	s.retryTimer = time.AfterFunc(s.retryDelay, func() {
		s.retryRefetch(storyID)
	})
}

func (s *Session) retryRefetch(storyID string) {
	s.mu.Lock()
	if s.storyID != storyID {
		s.mu.Unlock()
		return
	}
	s.retryTimer = nil
	s.mu.Unlock()

	s.logger.Debug().Str("story_id", storyID).Msg("no frame event received, refetching")
	if err := s.LoadStory(s.ctx, Ref{ID: storyID}, NoFrame); err == nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		s.notify()
	}
}

// HasPendingRetry reports whether a fallback refetch timer is armed.
func (s *Session) HasPendingRetry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retryTimer != nil
}

func (s *Session) stopRetryTimerLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
		s.retryTimer = nil
	}
}

// handleFrameAdded reacts to a frame-added event for the given story. The
// event carries only an index, so the authoritative frame list is always
// refetched. If the story had no frames yet, the new frame is selected so
// the content becomes immediately visible.
func (s *Session) handleFrameAdded(storyID string, frameNumber int) {
	s.mu.Lock()
	if s.storyID != storyID {
		s.mu.Unlock()
		return
	}
	wasEmpty := len(s.frames) == 0
	s.stopRetryTimerLocked()
	s.mu.Unlock()

	target := NoFrame
	if wasEmpty {
		target = frameNumber
	}
	if err := s.LoadStory(s.ctx, Ref{ID: storyID}, target); err == nil {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
		s.notify()
	}
}

// handleStatus reacts to a status change for the given story.
func (s *Session) handleStatus(storyID string, status api.StoryStatus) {
	s.mu.Lock()
	if s.storyID != storyID {
		s.mu.Unlock()
		return
	}
	s.lastStatus = &status

	refetch := false
	switch status.Status {
	case api.StatusKindError:
		if status.Error != "" {
			s.errMsg = status.Error
		} else {
			s.errMsg = "story generation failed"
		}
		s.submitting = false
	case api.StatusCompleted:
		// Covers a missed frame-added event.
		refetch = true
	case api.StatusProcessing, api.StatusAddingFrame:
		s.errMsg = ""
	}
	s.mu.Unlock()
	s.notify()

	if refetch {
		_ = s.LoadStory(s.ctx, Ref{ID: storyID}, NoFrame)
	}
}

// SelectFrame moves the selection to n, clamped into range. Returns false
// when the selection did not change.
func (s *Session) SelectFrame(n int) bool {
	s.mu.Lock()
	car, changed := s.carousel.Select(n)
	if changed {
		s.carousel = car
		s.hardJump = false
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}
	return changed
}

// NextFrame pages forward.
func (s *Session) NextFrame() bool {
	s.mu.Lock()
	n := s.carousel.Selected() + 1
	s.mu.Unlock()
	return s.SelectFrame(n)
}

// PrevFrame pages backward.
func (s *Session) PrevFrame() bool {
	s.mu.Lock()
	n := s.carousel.Selected() - 1
	s.mu.Unlock()
	return s.SelectFrame(n)
}

// Reset clears the server-side current-story pointer and the local state,
// ready to start a fresh story. The server call is fire-and-forget:
// failures are logged but do not block the local reset.
func (s *Session) Reset(ctx context.Context) {
	go func() {
		if err := s.api.ResetCurrentStory(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("server-side story reset failed")
		}
	}()

	s.mu.Lock()
	prevSub := s.sub
	s.sub = nil
	s.stopRetryTimerLocked()
	s.storyID = ""
	s.title = ""
	s.slug = ""
	s.readOnly = false
	s.frames = nil
	s.carousel = NewCarousel(0)
	s.lastStatus = nil
	s.errMsg = ""
	s.submitting = false
	s.loading = false
	s.mu.Unlock()

	if prevSub != nil {
		prevSub.Close()
	}
	s.notify()
}

// Close tears down the realtime subscription and any pending timer.
func (s *Session) Close() {
	s.cancel()
	s.mu.Lock()
	prevSub := s.sub
	s.sub = nil
	s.stopRetryTimerLocked()
	s.mu.Unlock()
	if prevSub != nil {
		prevSub.Close()
	}
}

func (s *Session) subscribe(storyID string, knownFrames int) {
	sub := s.channel.Subscribe(s.ctx, storyID, knownFrames, &channelHandler{session: s, storyID: storyID})
	s.mu.Lock()
	if s.storyID != storyID || s.sub != nil {
		s.mu.Unlock()
		sub.Close()
		return
	}
	s.sub = sub
	s.mu.Unlock()
}

// SubscriptionState reports the realtime transport currently in use.
func (s *Session) SubscriptionState() realtime.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sub == nil {
		return realtime.StateUninitialized
	}
	return s.sub.State()
}

// channelHandler binds channel callbacks to the story id they were
// subscribed for, so an event from a previous story can never mutate the
// state of the next one.
type channelHandler struct {
	session *Session
	storyID string
}

func (h *channelHandler) StatusChanged(status api.StoryStatus) {
	h.session.handleStatus(h.storyID, status)
}

func (h *channelHandler) FrameAdded(frameNumber int) {
	h.session.handleFrameAdded(h.storyID, frameNumber)
}
