package export

import (
	"strings"
	"testing"

	"github.com/chrisimmel/calliope-sub000/internal/api"
	"github.com/chrisimmel/calliope-sub000/internal/media"
)

func sampleStory() *api.Story {
	return &api.Story{
		ID:       "s1",
		Title:    "The Fox and the Moon",
		Strategy: "tamarin",
		Frames: []api.Frame{
			{
				Image: &api.Image{URL: "media/frame0.png"},
				Text:  "Once there was a fox.",
			},
			{
				Image: &api.Image{URL: "media/frame1.png"},
				Video: &api.Video{URL: "media/frame1.mp4"},
				Text:  "It looked at the moon.",
			},
		},
	}
}

// TestStoryMarkdown verifies the document shape and media resolution.
func TestStoryMarkdown(t *testing.T) {
	resolver := media.NewResolver(media.TargetNative, "https://calliope.example.com")
	out := StoryMarkdown(sampleStory(), resolver)

	if !strings.HasPrefix(out, "# The Fox and the Moon\n") {
		t.Errorf("Expected title heading, got:\n%s", out)
	}
	if !strings.Contains(out, "*Told by tamarin.*") {
		t.Error("Expected strategy attribution line")
	}
	if !strings.Contains(out, "![Frame 1](https://calliope.example.com/media/frame0.png)") {
		t.Error("Expected resolved image link for the first frame")
	}
	if !strings.Contains(out, "[Frame 2 video](https://calliope.example.com/media/frame1.mp4)") {
		t.Error("Expected resolved video link for the second frame")
	}
	if !strings.Contains(out, "Once there was a fox.") || !strings.Contains(out, "It looked at the moon.") {
		t.Error("Expected frame texts in output")
	}
	if strings.Count(out, "\n---\n") != 1 {
		t.Errorf("Expected one frame separator, got:\n%s", out)
	}
}

// TestStoryMarkdown_Untitled verifies the fallback title and that empty
// media slots produce no links.
func TestStoryMarkdown_Untitled(t *testing.T) {
	story := &api.Story{Frames: []api.Frame{{Text: "words only"}}}
	out := StoryMarkdown(story, media.NewResolver(media.TargetWeb, ""))

	if !strings.HasPrefix(out, "# Untitled story\n") {
		t.Errorf("Expected fallback title, got:\n%s", out)
	}
	if strings.Contains(out, "![") || strings.Contains(out, "video](") {
		t.Error("Expected no media links for a text-only frame")
	}
	if strings.Contains(out, "Told by") {
		t.Error("Expected no attribution without a strategy")
	}
}

// TestStoryHTML verifies the standalone page wraps the rendered markdown.
func TestStoryHTML(t *testing.T) {
	resolver := media.NewResolver(media.TargetWeb, "")
	out := StoryHTML(sampleStory(), resolver)

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Error("Expected a standalone HTML document")
	}
	if !strings.Contains(out, "<title>The Fox and the Moon</title>") {
		t.Error("Expected the story title in the head")
	}
	if !strings.Contains(out, `<h1 id="the-fox-and-the-moon">The Fox and the Moon</h1>`) {
		t.Errorf("Expected rendered heading, got:\n%s", out)
	}
	if !strings.Contains(out, `<img src="/media/frame0.png"`) {
		t.Error("Expected rendered image tag with resolved path")
	}
}
