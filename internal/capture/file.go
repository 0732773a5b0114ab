package capture

import (
	"context"
	"fmt"
	"os"
)

// FileDevice treats user-supplied files as the capture source. It is the
// adapter for platforms where a picker or another tool already produced the
// media.
type FileDevice struct {
	PhotoPath string
	AudioPath string
}

// NewFileDevice creates a device reading from the given paths. Either path
// may be empty if that media kind will not be captured.
func NewFileDevice(photoPath, audioPath string) *FileDevice {
	return &FileDevice{PhotoPath: photoPath, AudioPath: audioPath}
}

// TakePhoto reads the configured photo file.
func (d *FileDevice) TakePhoto(ctx context.Context) (*Media, error) {
	return readMediaFile(d.PhotoPath, "camera")
}

// RecordAudio reads the configured audio file.
func (d *FileDevice) RecordAudio(ctx context.Context) (*Media, error) {
	return readMediaFile(d.AudioPath, "microphone")
}

// CheckPermission verifies the configured files are readable.
func (d *FileDevice) CheckPermission() error {
	for _, path := range []string{d.PhotoPath, d.AudioPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return &PermissionError{Device: "file", Err: err}
		}
	}
	return nil
}

// RequestPermission is a no-op for file sources; access either exists or
// the user must fix the path.
func (d *FileDevice) RequestPermission() error {
	return d.CheckPermission()
}

func readMediaFile(path, device string) (*Media, error) {
	if path == "" {
		return nil, &PermissionError{Device: device, Err: fmt.Errorf("no input file configured")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read media file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("media file %s is empty", path)
	}
	return &Media{Data: data, MimeType: DetectMimeType(data)}, nil
}
