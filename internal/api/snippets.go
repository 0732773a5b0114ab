package api

import "encoding/base64"

// CreateSnippets builds the snippet list for a frame submission from raw
// captured media. Nil or empty inputs are skipped, so a photo-only or
// audio-only submission produces a single snippet.
func CreateSnippets(image, audio []byte) []Snippet {
	var snippets []Snippet
	if len(image) > 0 {
		snippets = append(snippets, Snippet{Image: base64.StdEncoding.EncodeToString(image)})
	}
	if len(audio) > 0 {
		snippets = append(snippets, Snippet{Audio: base64.StdEncoding.EncodeToString(audio)})
	}
	return snippets
}
