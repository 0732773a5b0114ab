// Package media resolves relative media paths returned by the story service
// into URLs usable by the current deployment target.
package media

import "strings"

// Target selects how relative media paths are resolved.
type Target string

const (
	// TargetWeb serves the client from the same origin as the API, so a
	// root-relative path is enough.
	TargetWeb Target = "web"
	// TargetNative runs the client detached from the server origin and
	// needs fully qualified URLs.
	TargetNative Target = "native"
)

// Resolver maps media paths from API responses to fetchable URLs.
type Resolver struct {
	target  Target
	baseURL string
}

// NewResolver creates a resolver for the given target. baseURL is the API
// server base URL, used only for the native target.
func NewResolver(target Target, baseURL string) *Resolver {
	return &Resolver{
		target:  target,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// ResolveURL converts a media path to a URL for the current target.
// Absolute URLs and empty paths pass through unchanged.
func (r *Resolver) ResolveURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	rel := "/" + strings.TrimPrefix(path, "/")
	if r.target == TargetNative {
		return r.baseURL + rel
	}
	return rel
}
