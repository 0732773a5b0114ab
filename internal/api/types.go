package api

// Image describes a stored image belonging to a frame or story thumbnail.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
}

// Video describes a stored video belonging to a frame.
type Video struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Format string `json:"format,omitempty"`
}

// Frame is one step of a story: image and/or video plus text. Frames are
// ordered within a story; the index in the slice is the frame number.
type Frame struct {
	Image    *Image         `json:"image,omitempty"`
	Video    *Video         `json:"video,omitempty"`
	Text     string         `json:"text,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Story holds story metadata and, when requested, its full frame sequence.
type Story struct {
	ID                 string       `json:"story_id"`
	Title              string       `json:"title"`
	Slug               string       `json:"slug"`
	FrameCount         int          `json:"frame_count"`
	IsBookmarked       bool         `json:"is_bookmarked"`
	IsCurrent          bool         `json:"is_current"`
	IsReadOnly         bool         `json:"is_read_only"`
	Strategy           string       `json:"strategy,omitempty"`
	CreatedForClientID string       `json:"created_for_client_id,omitempty"`
	Thumbnail          *Image       `json:"thumbnail_image,omitempty"`
	DateCreated        string       `json:"date_created,omitempty"`
	DateUpdated        string       `json:"date_updated,omitempty"`
	Status             *StoryStatus `json:"status,omitempty"`
	Frames             []Frame      `json:"frames,omitempty"`
}

// StatusKind enumerates the states a story's generation pipeline reports.
type StatusKind string

const (
	StatusUnknown     StatusKind = "unknown"
	StatusProcessing  StatusKind = "processing"
	StatusAddingFrame StatusKind = "adding_frame"
	StatusCompleted   StatusKind = "completed"
	StatusKindError   StatusKind = "error"
	StatusWarning     StatusKind = "warning"
)

// Busy reports whether the backend is still working on the story.
func (k StatusKind) Busy() bool {
	return k == StatusProcessing || k == StatusAddingFrame
}

// StoryStatus is a snapshot of a story's generation state. It is transient:
// the client never persists it beyond the current session.
type StoryStatus struct {
	Status     StatusKind `json:"status"`
	Error      string     `json:"error,omitempty"`
	FrameCount *int       `json:"frame_count,omitempty"`
	Title      string     `json:"title,omitempty"`
	CreatedAt  string     `json:"created_at,omitempty"`
	UpdatedAt  string     `json:"updated_at,omitempty"`
}

// UpdateFrameAdded is the update type emitted when a new frame lands.
const UpdateFrameAdded = "frame_added"

// StoryUpdate is an event from a story's update log. Updates are trigger
// signals only; the client refetches rather than trusting the payload.
type StoryUpdate struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	FrameNumber *int   `json:"frame_number,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Bookmark marks a frame within a story.
type Bookmark struct {
	ID          string `json:"id"`
	StoryID     string `json:"story_id"`
	FrameNumber int    `json:"frame_number"`
	Comments    string `json:"comments,omitempty"`
}

// Strategy is a named backend story-generation algorithm. Read-only
// reference data, loaded once.
type Strategy struct {
	Slug               string `json:"slug"`
	IsDefaultForClient bool   `json:"is_default_for_client_type"`
	IsExperimental     bool   `json:"is_experimental"`
}

// Snippet is one unit of user-submitted media, base64-encoded for transport.
type Snippet struct {
	Image string `json:"image,omitempty"`
	Audio string `json:"audio,omitempty"`
	Text  string `json:"text,omitempty"`
}

// ExtraParameters accompany every frame submission.
type ExtraParameters struct {
	ClientType    string `json:"client_type"`
	ClientID      string `json:"client_id"`
	GenerateVideo bool   `json:"generate_video"`
	Strategy      string `json:"strategy,omitempty"`
}

// FrameRequest is the body of story-creation and frame-addition calls.
type FrameRequest struct {
	Snippets        []Snippet       `json:"snippets"`
	ExtraParameters ExtraParameters `json:"extra_parameters"`
}

// CreateStoryResponse acknowledges an asynchronous story-creation request.
// The story id is assigned immediately; frame content arrives later.
type CreateStoryResponse struct {
	StoryID string `json:"story_id"`
	TaskID  string `json:"task_id"`
}

// AddFrameResponse acknowledges an asynchronous frame-addition request.
type AddFrameResponse struct {
	TaskID string `json:"task_id"`
}
