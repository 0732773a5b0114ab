// Package capture produces photo and audio payloads for frame submission.
// Platform differences live behind the Device interface: one implementation
// reads prepared files, another drives external capture commands. The
// device is selected once at startup and injected where needed.
package capture

import (
	"bytes"
	"context"
	"fmt"
)

// Media is one captured payload, ready for base64 encoding.
type Media struct {
	Data     []byte
	MimeType string
}

// Device captures photos and audio clips. Both adapters honour the same
// contract; callers never branch on the platform.
type Device interface {
	TakePhoto(ctx context.Context) (*Media, error)
	RecordAudio(ctx context.Context) (*Media, error)
	CheckPermission() error
	RequestPermission() error
}

// PermissionError reports that a capture device is unavailable or access
// was denied. It is recoverable: the user can grant access and retry.
type PermissionError struct {
	Device string
	Err    error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("no access to %s device: %v", e.Device, e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// DetectMimeType sniffs the media type from magic bytes.
func DetectMimeType(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}

	switch {
	case data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47:
		return "image/png"
	case data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "image/jpeg"
	case data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46:
		return "image/gif"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return "audio/wav"
	case bytes.Equal(data[0:4], []byte("OggS")):
		return "audio/ogg"
	case bytes.Equal(data[0:3], []byte("ID3")) || (data[0] == 0xFF && data[1]&0xE0 == 0xE0):
		return "audio/mpeg"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether the sniffed mime type is an image type.
func IsImage(mimeType string) bool {
	return len(mimeType) > 6 && mimeType[:6] == "image/"
}
