// Package export renders a story to markdown or a standalone HTML page.
package export

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/chrisimmel/calliope-sub000/internal/api"
	"github.com/chrisimmel/calliope-sub000/internal/media"
)

// StoryMarkdown renders the story's frames as a markdown document. Media
// paths are resolved against the current deployment target so the result
// references fetchable URLs.
func StoryMarkdown(story *api.Story, resolver *media.Resolver) string {
	var b strings.Builder

	title := story.Title
	if title == "" {
		title = "Untitled story"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	if story.Strategy != "" {
		fmt.Fprintf(&b, "*Told by %s.*\n\n", story.Strategy)
	}

	for i, frame := range story.Frames {
		if i > 0 {
			b.WriteString("\n---\n\n")
		}
		if frame.Image != nil && frame.Image.URL != "" {
			fmt.Fprintf(&b, "![Frame %d](%s)\n\n", i+1, resolver.ResolveURL(frame.Image.URL))
		}
		if frame.Video != nil && frame.Video.URL != "" {
			fmt.Fprintf(&b, "[Frame %d video](%s)\n\n", i+1, resolver.ResolveURL(frame.Video.URL))
		}
		if text := strings.TrimSpace(frame.Text); text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// StoryHTML renders the story as a standalone HTML page.
func StoryHTML(story *api.Story, resolver *media.Resolver) string {
	body := markdownToHTML(StoryMarkdown(story, resolver))

	title := story.Title
	if title == "" {
		title = "Untitled story"
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, title, body)
}

// markdownToHTML converts markdown to an HTML fragment.
func markdownToHTML(text string) string {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(text))

	htmlFlags := html.CommonFlags | html.HrefTargetBlank
	opts := html.RendererOptions{Flags: htmlFlags}
	renderer := html.NewRenderer(opts)

	return string(markdown.Render(doc, renderer))
}
