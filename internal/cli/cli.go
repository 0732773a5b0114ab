// Package cli provides command-line interface commands for clio.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/chrisimmel/calliope-sub000/internal/api"
	"github.com/chrisimmel/calliope-sub000/internal/capture"
	"github.com/chrisimmel/calliope-sub000/internal/config"
	"github.com/chrisimmel/calliope-sub000/internal/media"
	"github.com/chrisimmel/calliope-sub000/internal/realtime"
	"github.com/chrisimmel/calliope-sub000/internal/story"
)

// app bundles the collaborators every command needs.
type app struct {
	cfg      *config.Config
	logger   zerolog.Logger
	client   *api.Client
	resolver *media.Resolver
}

// newApp loads configuration and wires the shared clients.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.APIKey == "" {
		return nil, fmt.Errorf("no API key configured - run 'clio init' or set CALLIOPE_API_KEY")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(level)

	client := api.NewClient(cfg.Server.BaseURL, cfg.Server.APIKey, cfg.Server.ClientID, logger)

	target := media.TargetNative
	if cfg.Server.Target == string(media.TargetWeb) {
		target = media.TargetWeb
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   client,
		resolver: media.NewResolver(target, cfg.Server.BaseURL),
	}, nil
}

// channel builds the realtime connector from config. Returns nil when the
// channel is disabled outright.
func (a *app) channel() realtime.Channel {
	wsBase := a.cfg.Realtime.WSBaseURL
	switch wsBase {
	case "off":
		wsBase = ""
	case "":
		wsBase = realtime.WSBaseURL(a.cfg.Server.BaseURL)
	}

	conn := realtime.NewConnector(a.client, wsBase, a.cfg.Server.APIKey, a.logger)
	conn.SetRetryPolicy(a.cfg.Realtime.DialAttempts, a.cfg.Realtime.DialBackoff)
	conn.SetPollInterval(a.cfg.Realtime.PollInterval)
	return conn
}

// session builds a synchronization core over the shared API client.
func (a *app) session(channel realtime.Channel) *story.Session {
	return story.NewSession(a.client, channel, story.Options{
		Strategy:      a.cfg.Story.Strategy,
		GenerateVideo: a.cfg.Story.GenerateVideo,
	}, a.logger)
}

// device selects the capture adapter once, from config.
func (a *app) device(photoPath, audioPath string) capture.Device {
	if a.cfg.Capture.Device == "command" && photoPath == "" && audioPath == "" {
		return capture.NewCommandDevice(a.cfg.Capture.PhotoCommand, a.cfg.Capture.AudioCommand, a.logger)
	}
	return capture.NewFileDevice(photoPath, audioPath)
}

// storyRef interprets a positional argument as a slug, or as a raw story
// id when the command's --id flag was set.
func storyRef(arg string, isID bool) story.Ref {
	if isID {
		return story.Ref{ID: arg}
	}
	return story.Ref{Slug: arg}
}
