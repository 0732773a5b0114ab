package media

import "testing"

// TestResolveURL verifies path resolution for both deployment targets.
func TestResolveURL(t *testing.T) {
	tests := []struct {
		name    string
		target  Target
		baseURL string
		path    string
		want    string
	}{
		{"web relative", TargetWeb, "https://calliope.example.com", "media/frame0.png", "/media/frame0.png"},
		{"web already rooted", TargetWeb, "https://calliope.example.com", "/media/frame0.png", "/media/frame0.png"},
		{"native relative", TargetNative, "https://calliope.example.com", "media/frame0.png", "https://calliope.example.com/media/frame0.png"},
		{"native rooted", TargetNative, "https://calliope.example.com/", "/media/frame0.png", "https://calliope.example.com/media/frame0.png"},
		{"absolute passthrough", TargetNative, "https://calliope.example.com", "https://cdn.example.com/x.png", "https://cdn.example.com/x.png"},
		{"insecure absolute passthrough", TargetWeb, "https://calliope.example.com", "http://cdn.example.com/x.png", "http://cdn.example.com/x.png"},
		{"empty path", TargetNative, "https://calliope.example.com", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.target, tt.baseURL)
			if got := r.ResolveURL(tt.path); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
