package story

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisimmel/calliope-sub000/internal/api"
	"github.com/chrisimmel/calliope-sub000/internal/capture"
	"github.com/chrisimmel/calliope-sub000/internal/realtime"
)

// fakeAPI is an in-memory API implementation with programmable responses.
type fakeAPI struct {
	mu          sync.Mutex
	stories     map[string]*api.Story
	getErr      error
	getCalls    map[string]int
	createResp  *api.CreateStoryResponse
	createCalls int
	addFrameErr error
	addGate     chan struct{}
	addCalls    int
	resetCalls  int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		stories:  make(map[string]*api.Story),
		getCalls: make(map[string]int),
	}
}

func (f *fakeAPI) setStory(story *api.Story) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stories[story.ID] = story
}

func (f *fakeAPI) GetStory(ctx context.Context, storyID string) (*api.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls[storyID]++
	if f.getErr != nil {
		return nil, f.getErr
	}
	story, ok := f.stories[storyID]
	if !ok {
		return nil, fmt.Errorf("story %s not found", storyID)
	}
	copied := *story
	return &copied, nil
}

func (f *fakeAPI) GetStoryBySlug(ctx context.Context, slug string) (*api.Story, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, story := range f.stories {
		if story.Slug == slug {
			copied := *story
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("story with slug %s not found", slug)
}

func (f *fakeAPI) CreateStory(ctx context.Context, req api.FrameRequest) (*api.CreateStoryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createResp == nil {
		return nil, errors.New("no create response programmed")
	}
	return f.createResp, nil
}

func (f *fakeAPI) AddFrame(ctx context.Context, storyID string, req api.FrameRequest) (*api.AddFrameResponse, error) {
	f.mu.Lock()
	gate := f.addGate
	f.addCalls++
	err := f.addFrameErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &api.AddFrameResponse{TaskID: "task-1"}, nil
}

func (f *fakeAPI) ResetCurrentStory(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return nil
}

func (f *fakeAPI) NewFrameRequest(snippets []api.Snippet, strategy string, generateVideo bool) api.FrameRequest {
	return api.FrameRequest{
		Snippets: snippets,
		ExtraParameters: api.ExtraParameters{
			ClientType:    "test",
			ClientID:      "client-1",
			GenerateVideo: generateVideo,
			Strategy:      strategy,
		},
	}
}

func (f *fakeAPI) gets(storyID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls[storyID]
}

// fakeChannel records subscriptions and lets tests emit events through
// their handlers.
type fakeChannel struct {
	mu   sync.Mutex
	subs []*fakeSub
}

type fakeSub struct {
	storyID     string
	knownFrames int
	handler     realtime.Handler
	mu          sync.Mutex
	closed      bool
}

func (c *fakeChannel) Subscribe(ctx context.Context, storyID string, knownFrames int, h realtime.Handler) realtime.Subscription {
	sub := &fakeSub{storyID: storyID, knownFrames: knownFrames, handler: h}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub
}

func (c *fakeChannel) last() *fakeSub {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		return nil
	}
	return c.subs[len(c.subs)-1]
}

func (s *fakeSub) State() realtime.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return realtime.StateTornDown
	}
	return realtime.StatePushActive
}

func (s *fakeSub) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSub) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func storyWithFrames(id, slug string, n int) *api.Story {
	frames := make([]api.Frame, n)
	for i := range frames {
		frames[i] = api.Frame{Text: fmt.Sprintf("frame %d", i)}
	}
	return &api.Story{ID: id, Slug: slug, Title: "Test Story", FrameCount: n, Frames: frames}
}

func newTestSession(t *testing.T, f *fakeAPI, ch realtime.Channel) *Session {
	t.Helper()
	s := NewSession(f, ch, Options{RetryDelay: time.Hour}, zerolog.Nop())
	t.Cleanup(s.Close)
	return s
}

func TestSession_LoadStoryDefaultsToLastFrame(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 3))
	s := newTestSession(t, f, &fakeChannel{})

	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))

	snap := s.Snapshot()
	assert.Equal(t, "s1", snap.StoryID)
	assert.Len(t, snap.Frames, 3)
	assert.Equal(t, 2, snap.SelectedFrame)
	assert.True(t, snap.HardJump)
	assert.Empty(t, snap.Err)
}

func TestSession_LoadStoryClampsRequestedFrame(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 3))
	s := newTestSession(t, f, &fakeChannel{})

	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, 99))
	assert.Equal(t, 2, s.Snapshot().SelectedFrame)

	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, 1))
	assert.Equal(t, 1, s.Snapshot().SelectedFrame)
}

func TestSession_LoadStoryBySlug(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 2))
	s := newTestSession(t, f, &fakeChannel{})

	require.NoError(t, s.LoadStory(context.Background(), Ref{Slug: "a-test-story"}, NoFrame))
	snap := s.Snapshot()
	assert.Equal(t, "s1", snap.StoryID)
	assert.Len(t, snap.Frames, 2)
}

func TestSession_LoadFailureKeepsStaleFrames(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 3))
	s := newTestSession(t, f, &fakeChannel{})
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))

	f.mu.Lock()
	f.getErr = errors.New("connection refused")
	f.mu.Unlock()

	err := s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.Len(t, snap.Frames, 3, "stale frames beat a blank view")
	assert.NotEmpty(t, snap.Err)
	assert.False(t, snap.IsLoading)

	f.mu.Lock()
	f.getErr = nil
	f.mu.Unlock()

	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))
	assert.Empty(t, s.Snapshot().Err, "error slot cleared on next success")
}

func TestSession_RefetchPreservesSelection(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 3))
	s := newTestSession(t, f, &fakeChannel{})
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, 2))

	// A backend race grows the story while the user is reading frame 2.
	f.setStory(storyWithFrames("s1", "a-test-story", 5))
	s.handleStatus("s1", api.StoryStatus{Status: api.StatusCompleted})

	snap := s.Snapshot()
	assert.Len(t, snap.Frames, 5)
	assert.Equal(t, 2, snap.SelectedFrame, "status-triggered refetch must not move the user")
}

func TestSession_FrameAddedIsIdempotent(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 1))
	s := newTestSession(t, f, &fakeChannel{})
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))

	f.setStory(storyWithFrames("s1", "a-test-story", 2))
	s.handleFrameAdded("s1", 1)
	first := s.Snapshot()

	// Duplicate delivery of the same event.
	s.handleFrameAdded("s1", 1)
	second := s.Snapshot()

	assert.Equal(t, first.Frames, second.Frames)
	assert.Equal(t, first.SelectedFrame, second.SelectedFrame)
	assert.Len(t, second.Frames, 2)
}

func TestSession_FrameAddedOnEmptyStorySelectsNewFrame(t *testing.T) {
	f := newFakeAPI()
	f.createResp = &api.CreateStoryResponse{StoryID: "s1", TaskID: "t1"}
	ch := &fakeChannel{}
	s := newTestSession(t, f, ch)

	photo := &capture.Media{Data: []byte{0xFF, 0xD8, 0xFF, 0x01}, MimeType: "image/jpeg"}
	require.NoError(t, s.SubmitFrame(context.Background(), photo, nil))

	require.Eventually(t, func() bool {
		sub := ch.last()
		return sub != nil && sub.storyID == "s1"
	}, time.Second, 5*time.Millisecond, "channel should attach as soon as the id is known")
	assert.Equal(t, 0, ch.last().knownFrames)
	assert.True(t, s.Snapshot().IsSubmitting)

	// The generated frame lands and the realtime channel announces it.
	f.setStory(storyWithFrames("s1", "a-new-story", 1))
	ch.last().handler.FrameAdded(0)

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return len(snap.Frames) == 1 && snap.SelectedFrame == 0 && !snap.IsSubmitting
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, f.gets("s1"), 1, "event must trigger an authoritative refetch")
}

func TestSession_SecondSubmissionCancelsPendingTimer(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 1))
	s := newTestSession(t, f, &fakeChannel{})
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))

	photo := &capture.Media{Data: []byte{0xFF, 0xD8, 0xFF, 0x01}, MimeType: "image/jpeg"}
	require.NoError(t, s.SubmitFrame(context.Background(), photo, nil))
	require.Eventually(t, s.HasPendingRetry, time.Second, 5*time.Millisecond)

	// Gate the second request so we can observe the window between
	// cancelling the old timer and arming the new one.
	gate := make(chan struct{})
	f.mu.Lock()
	f.addGate = gate
	f.mu.Unlock()

	require.NoError(t, s.SubmitFrame(context.Background(), photo, nil))
	assert.False(t, s.HasPendingRetry(), "previous timer must be cancelled before the new request is issued")

	close(gate)
	require.Eventually(t, s.HasPendingRetry, time.Second, 5*time.Millisecond)
}

func TestSession_SwitchTearsDownPreviousSubscription(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "story-one", 2))
	f.setStory(storyWithFrames("s2", "story-two", 4))
	ch := &fakeChannel{}
	s := newTestSession(t, f, ch)

	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))
	subA := ch.last()
	require.NotNil(t, subA)

	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s2"}, NoFrame))
	assert.True(t, subA.isClosed(), "old subscription must be torn down on story switch")
	subB := ch.last()
	assert.Equal(t, "s2", subB.storyID)

	// A stray event for the old story must not touch the new state.
	before := s.Snapshot()
	subA.handler.FrameAdded(7)
	subA.handler.StatusChanged(api.StoryStatus{Status: api.StatusKindError, Error: "stale"})
	after := s.Snapshot()
	assert.Equal(t, before.Frames, after.Frames)
	assert.Empty(t, after.Err)
}

func TestSession_StatusTransitions(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 2))
	s := newTestSession(t, f, &fakeChannel{})
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))

	s.handleStatus("s1", api.StoryStatus{Status: api.StatusKindError, Error: "the muse is out"})
	snap := s.Snapshot()
	assert.Equal(t, "the muse is out", snap.Err)
	assert.False(t, snap.IsSubmitting)

	s.handleStatus("s1", api.StoryStatus{Status: api.StatusAddingFrame})
	assert.Empty(t, s.Snapshot().Err, "busy status clears a stale error")
}

func TestSession_SubmitFailureSurfacesError(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 1))
	f.addFrameErr = errors.New("503 service unavailable")
	s := newTestSession(t, f, &fakeChannel{})
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))

	photo := &capture.Media{Data: []byte{0xFF, 0xD8, 0xFF, 0x01}, MimeType: "image/jpeg"}
	require.NoError(t, s.SubmitFrame(context.Background(), photo, nil))

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return snap.Err != "" && !snap.IsSubmitting
	}, time.Second, 5*time.Millisecond)
	assert.False(t, s.HasPendingRetry())
}

func TestSession_SubmitNothingFails(t *testing.T) {
	s := newTestSession(t, newFakeAPI(), &fakeChannel{})
	assert.Error(t, s.SubmitFrame(context.Background(), nil, nil))
}

func TestSession_ResetClearsState(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 3))
	ch := &fakeChannel{}
	s := newTestSession(t, f, ch)
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, NoFrame))
	sub := ch.last()

	s.Reset(context.Background())

	snap := s.Snapshot()
	assert.Empty(t, snap.StoryID)
	assert.Empty(t, snap.Frames)
	assert.Equal(t, NoFrame, snap.SelectedFrame)
	assert.True(t, sub.isClosed())

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.resetCalls == 1
	}, time.Second, 5*time.Millisecond, "server reset is fire-and-forget but must be sent")
}

func TestSession_SelectFrameNotifiesListeners(t *testing.T) {
	f := newFakeAPI()
	f.setStory(storyWithFrames("s1", "a-test-story", 3))
	s := newTestSession(t, f, &fakeChannel{})
	require.NoError(t, s.LoadStory(context.Background(), Ref{ID: "s1"}, 0))

	var mu sync.Mutex
	var seen []int
	s.AddListener(func(snap Snapshot) {
		mu.Lock()
		seen = append(seen, snap.SelectedFrame)
		mu.Unlock()
	})

	assert.True(t, s.SelectFrame(2))
	assert.False(t, s.SelectFrame(2), "re-selecting the same frame is a no-op")
	assert.True(t, s.PrevFrame())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{2, 1}, seen)
}
