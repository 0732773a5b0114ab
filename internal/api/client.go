// Package api provides the HTTP client for the Calliope story service.
// It wraps the v1 and v2 REST endpoints with a consistent auth header and
// timeout policy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ClientType identifies this client to the backend.
	ClientType = "clio"

	defaultTimeout = 30 * time.Second
	// Frame submission may include server-side media generation, which can
	// run far longer than an ordinary fetch.
	submitTimeout = 180 * time.Second
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

// Client calls the Calliope REST API. All requests carry the X-Api-Key
// header; story/frame fetches use a 30s timeout and frame submissions 180s.
type Client struct {
	baseURL      string
	apiKey       string
	clientID     string
	httpClient   *http.Client
	submitClient *http.Client
	logger       zerolog.Logger
}

// NewClient creates an API client for the given server.
func NewClient(baseURL, apiKey, clientID string, logger zerolog.Logger) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		clientID:     clientID,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		submitClient: &http.Client{Timeout: submitTimeout},
		logger:       logger.With().Str("component", "api").Logger(),
	}
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ClientID returns the client id sent with every request.
func (c *Client) ClientID() string {
	return c.clientID
}

// NewFrameRequest assembles the submission body shared by CreateStory and
// AddFrame.
func (c *Client) NewFrameRequest(snippets []Snippet, strategy string, generateVideo bool) FrameRequest {
	return FrameRequest{
		Snippets: snippets,
		ExtraParameters: ExtraParameters{
			ClientType:    ClientType,
			ClientID:      c.clientID,
			GenerateVideo: generateVideo,
			Strategy:      strategy,
		},
	}
}

// GetStory fetches a story with its full frame list.
func (c *Client) GetStory(ctx context.Context, storyID string) (*Story, error) {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("include_frames", "true")
	path := fmt.Sprintf("/v2/stories/%s/?%s", url.PathEscape(storyID), q.Encode())

	var story Story
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, path, nil, &story); err != nil {
		return nil, fmt.Errorf("get story %s: %w", storyID, err)
	}
	if story.ID == "" {
		story.ID = storyID
	}
	return &story, nil
}

// GetStoryBySlug fetches a story by its slug.
func (c *Client) GetStoryBySlug(ctx context.Context, slug string) (*Story, error) {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	path := fmt.Sprintf("/v1/story/slug/%s/?%s", url.PathEscape(slug), q.Encode())

	var resp struct {
		Story Story `json:"story"`
	}
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get story by slug %s: %w", slug, err)
	}
	return &resp.Story, nil
}

// ListStories fetches the stories visible to this client.
func (c *Client) ListStories(ctx context.Context) ([]Story, error) {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	path := "/v1/stories/?" + q.Encode()

	var resp struct {
		Stories []Story `json:"stories"`
	}
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return resp.Stories, nil
}

// CreateStory starts a new story from the given submission. The call is
// asynchronous: the response carries the assigned story id and a task id,
// not frame content.
func (c *Client) CreateStory(ctx context.Context, req FrameRequest) (*CreateStoryResponse, error) {
	var resp CreateStoryResponse
	if err := c.doJSON(ctx, c.submitClient, http.MethodPost, "/v2/stories/", req, &resp); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}
	c.logger.Debug().Str("story_id", resp.StoryID).Str("task_id", resp.TaskID).Msg("story creation accepted")
	return &resp, nil
}

// AddFrame submits new media to an existing story. Asynchronous like
// CreateStory; the resulting frame arrives via the realtime channel.
func (c *Client) AddFrame(ctx context.Context, storyID string, req FrameRequest) (*AddFrameResponse, error) {
	path := fmt.Sprintf("/v2/stories/%s/frames/", url.PathEscape(storyID))

	var resp AddFrameResponse
	if err := c.doJSON(ctx, c.submitClient, http.MethodPost, path, req, &resp); err != nil {
		return nil, fmt.Errorf("add frame to story %s: %w", storyID, err)
	}
	c.logger.Debug().Str("story_id", storyID).Str("task_id", resp.TaskID).Msg("frame submission accepted")
	return &resp, nil
}

// ListStrategies fetches the generation strategies available to this client.
func (c *Client) ListStrategies(ctx context.Context) ([]Strategy, error) {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	path := "/v1/config/strategy/?" + q.Encode()

	var resp struct {
		Strategies []Strategy `json:"strategies"`
	}
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	return resp.Strategies, nil
}

// ListBookmarks fetches this client's frame bookmarks.
func (c *Client) ListBookmarks(ctx context.Context) ([]Bookmark, error) {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	path := "/v1/bookmarks/frame/?" + q.Encode()

	var resp struct {
		Bookmarks []Bookmark `json:"bookmarks"`
	}
	if err := c.doJSON(ctx, c.httpClient, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	return resp.Bookmarks, nil
}

// AddBookmark bookmarks a frame of a story.
func (c *Client) AddBookmark(ctx context.Context, storyID string, frameNumber int, comments string) (*Bookmark, error) {
	body := struct {
		StoryID     string `json:"story_id"`
		FrameNumber int    `json:"frame_number"`
		Comments    string `json:"comments,omitempty"`
		ClientID    string `json:"client_id"`
	}{storyID, frameNumber, comments, c.clientID}

	var bookmark Bookmark
	if err := c.doJSON(ctx, c.httpClient, http.MethodPost, "/v1/bookmarks/frame/", body, &bookmark); err != nil {
		return nil, fmt.Errorf("add bookmark: %w", err)
	}
	return &bookmark, nil
}

// DeleteBookmark removes a bookmark by id.
func (c *Client) DeleteBookmark(ctx context.Context, bookmarkID string) error {
	path := fmt.Sprintf("/v1/bookmarks/frame/%s/", url.PathEscape(bookmarkID))
	if err := c.doJSON(ctx, c.httpClient, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete bookmark %s: %w", bookmarkID, err)
	}
	return nil
}

// ResetCurrentStory clears the server-side "current story" pointer for this
// client, used before starting a fresh story.
func (c *Client) ResetCurrentStory(ctx context.Context) error {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	path := "/v1/story/reset/?" + q.Encode()
	if err := c.doJSON(ctx, c.httpClient, http.MethodPut, path, nil, nil); err != nil {
		return fmt.Errorf("reset current story: %w", err)
	}
	return nil
}

// doJSON performs one request against the API, encoding body and decoding
// the response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, httpClient *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
