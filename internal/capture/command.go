package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// CommandDevice captures media by running external commands (ffmpeg,
// imagesnap, arecord and friends). The configured command line must contain
// the {output} placeholder, replaced with a temp file the command writes.
type CommandDevice struct {
	PhotoCommand string
	AudioCommand string
	logger       zerolog.Logger
}

// NewCommandDevice creates a device driving the given capture commands.
func NewCommandDevice(photoCommand, audioCommand string, logger zerolog.Logger) *CommandDevice {
	return &CommandDevice{
		PhotoCommand: photoCommand,
		AudioCommand: audioCommand,
		logger:       logger.With().Str("component", "capture").Logger(),
	}
}

// TakePhoto runs the photo capture command.
func (d *CommandDevice) TakePhoto(ctx context.Context) (*Media, error) {
	return d.run(ctx, d.PhotoCommand, "camera", "clio-photo-*.jpg")
}

// RecordAudio runs the audio capture command.
func (d *CommandDevice) RecordAudio(ctx context.Context) (*Media, error) {
	return d.run(ctx, d.AudioCommand, "microphone", "clio-audio-*.wav")
}

// CheckPermission verifies the configured capture binaries exist on PATH.
func (d *CommandDevice) CheckPermission() error {
	for device, command := range map[string]string{"camera": d.PhotoCommand, "microphone": d.AudioCommand} {
		if command == "" {
			continue
		}
		name := strings.Fields(command)[0]
		if _, err := exec.LookPath(name); err != nil {
			return &PermissionError{Device: device, Err: err}
		}
	}
	return nil
}

// RequestPermission re-checks command availability. Granting OS-level
// camera/mic access to the capture binary is up to the user.
func (d *CommandDevice) RequestPermission() error {
	return d.CheckPermission()
}

func (d *CommandDevice) run(ctx context.Context, command, device, pattern string) (*Media, error) {
	if command == "" {
		return nil, &PermissionError{Device: device, Err: fmt.Errorf("no capture command configured")}
	}

	out, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create capture output file: %w", err)
	}
	outPath := out.Name()
	_ = out.Close()
	defer func() { _ = os.Remove(outPath) }()

	expanded := strings.ReplaceAll(command, "{output}", outPath)
	fields := strings.Fields(expanded)
	d.logger.Debug().Str("device", device).Str("command", fields[0]).Msg("running capture command")

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("capture command %s failed: %w: %s", filepath.Base(fields[0]), err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read capture output: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("capture command produced no output")
	}
	return &Media{Data: data, MimeType: DetectMimeType(data)}, nil
}
