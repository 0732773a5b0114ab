package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/chrisimmel/calliope-sub000/internal/api"
)

// wireMessage is one frame of the per-story websocket stream. The server
// interleaves status-document changes and update-log entries on a single
// connection.
type wireMessage struct {
	Type   string           `json:"type"`
	Status *api.StoryStatus `json:"status,omitempty"`
	Update *api.StoryUpdate `json:"update,omitempty"`
}

const (
	messageTypeStatus = "status"
	messageTypeUpdate = "update"
)

// pushSubscription reads the story's websocket stream until closed.
type pushSubscription struct {
	conn    *websocket.Conn
	handler Handler
	logger  zerolog.Logger
	closed  atomic.Bool
	wg      sync.WaitGroup
}

func newPushSubscription(conn *websocket.Conn, h Handler, logger zerolog.Logger) *pushSubscription {
	s := &pushSubscription{
		conn:    conn,
		handler: h,
		logger:  logger,
	}
	s.wg.Add(1)
	go s.readLoop()
	return s
}

func (s *pushSubscription) State() State {
	if s.closed.Load() {
		return StateTornDown
	}
	return StatePushActive
}

// Close shuts the connection and waits for the read loop to exit, so no
// handler callback can land after a story switch.
func (s *pushSubscription) Close() {
	if s.closed.Swap(true) {
		return
	}
	_ = s.conn.Close()
	s.wg.Wait()
}

func (s *pushSubscription) readLoop() {
	defer s.wg.Done()

	for {
		var msg wireMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !s.closed.Load() {
				s.logger.Warn().Err(err).Msg("push stream ended")
			}
			return
		}
		if s.closed.Load() {
			return
		}

		switch msg.Type {
		case messageTypeStatus:
			if msg.Status != nil {
				s.handler.StatusChanged(*msg.Status)
			}
		case messageTypeUpdate:
			if msg.Update != nil && msg.Update.Type == api.UpdateFrameAdded && msg.Update.FrameNumber != nil {
				s.handler.FrameAdded(*msg.Update.FrameNumber)
			}
		default:
			s.logger.Debug().Str("type", msg.Type).Msg("ignoring unknown stream message")
		}
	}
}
