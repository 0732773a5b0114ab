package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/chrisimmel/calliope-sub000/internal/capture"
	"github.com/chrisimmel/calliope-sub000/internal/story"
)

// NewSnapCmd creates the snap command.
func NewSnapCmd() *cobra.Command {
	var (
		photoPath string
		audioPath string
		fresh     bool
		wait      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Capture a photo and/or audio and extend the story",
		Long: `Capture media and submit it as the next frame of your current story.

The submission is asynchronous: the server acknowledges it immediately
and generates the frame in the background. snap stays connected to the
realtime channel and prints the new frame when it lands.

With --photo/--audio, the given files are submitted. Without them, the
configured capture commands run (see capture.photo_command in the
config).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnap(cmd, photoPath, audioPath, fresh, wait)
		},
	}
	cmd.Flags().StringVarP(&photoPath, "photo", "p", "", "photo file to submit")
	cmd.Flags().StringVarP(&audioPath, "audio", "a", "", "audio file to submit")
	cmd.Flags().BoolVar(&fresh, "new", false, "start a new story instead of extending the current one")
	cmd.Flags().DurationVar(&wait, "wait", 3*time.Minute, "how long to wait for the generated frame")
	return cmd
}

func runSnap(cmd *cobra.Command, photoPath, audioPath string, fresh bool, wait time.Duration) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	device := a.device(photoPath, audioPath)
	if err := device.CheckPermission(); err != nil {
		var permErr *capture.PermissionError
		if errors.As(err, &permErr) {
			fmt.Printf("Capture device unavailable (%s). Trying to request access...\n", permErr.Device)
			if err := device.RequestPermission(); err != nil {
				return fmt.Errorf("capture access denied - grant access or pass --photo/--audio: %w", err)
			}
		} else {
			return err
		}
	}

	photo, audio, err := captureMedia(ctx, device, photoPath != "" || a.cfg.Capture.PhotoCommand != "",
		audioPath != "" || a.cfg.Capture.AudioCommand != "")
	if err != nil {
		return err
	}
	if photo != nil {
		photo = capture.DownscalePhoto(photo, a.cfg.Capture.MaxPhotoEdge)
	}

	session := a.session(a.channel())
	defer session.Close()

	if fresh {
		session.Reset(ctx)
	} else if ref, err := currentStoryRef(ctx, a); err == nil {
		if err := session.LoadStory(ctx, ref, story.NoFrame); err != nil {
			a.logger.Warn().Err(err).Msg("could not load current story, starting a new one")
		}
	}

	before := len(session.Snapshot().Frames)

	updates := make(chan story.Snapshot, 16)
	session.AddListener(func(snap story.Snapshot) {
		select {
		case updates <- snap:
		default:
		}
	})

	if err := session.SubmitFrame(ctx, photo, audio); err != nil {
		return err
	}
	fmt.Println("Frame submitted. Waiting for the muse...")

	deadline := time.After(wait)
	for {
		select {
		case snap := <-updates:
			if snap.Err != "" {
				return fmt.Errorf("story generation failed: %s", snap.Err)
			}
			if len(snap.Frames) > before {
				frame := snap.Frames[len(snap.Frames)-1]
				fmt.Printf("\nFrame %d of %q:\n\n", len(snap.Frames), snap.Title)
				if frame.Image != nil && frame.Image.URL != "" {
					fmt.Printf("image: %s\n", a.resolver.ResolveURL(frame.Image.URL))
				}
				if frame.Text != "" {
					fmt.Println(frame.Text)
				}
				return nil
			}
		case <-deadline:
			return fmt.Errorf("no frame arrived within %s - check 'clio watch' later", wait)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func captureMedia(ctx context.Context, device capture.Device, wantPhoto, wantAudio bool) (photo, audio *capture.Media, err error) {
	if wantPhoto {
		photo, err = device.TakePhoto(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("photo capture failed: %w", err)
		}
	}
	if wantAudio {
		audio, err = device.RecordAudio(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("audio capture failed: %w", err)
		}
	}
	if photo == nil && audio == nil {
		return nil, nil, errors.New("nothing captured - pass --photo/--audio or configure capture commands")
	}
	return photo, audio, nil
}
