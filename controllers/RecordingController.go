package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"threadhive/composer"
	"threadhive/helper"
)

// recordingEvent is what the server tells the client over the socket.
type recordingEvent struct {
	Action string   `json:"action"`
	Files  int      `json:"files,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// RecordingServer streams audio into a user's draft. Binary frames are audio
// chunks; a {"action":"stop"} text frame or closing the socket finalizes the
// recording into recording.mp3.
type RecordingServer struct {
	drafts   *composer.Drafts
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewRecordingServer(drafts *composer.Drafts, allowedOrigins []string, logger *slog.Logger) *RecordingServer {
	return &RecordingServer{
		drafts: drafts,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (s *RecordingServer) HandleWS(c *gin.Context) {
	user, ok := helper.CurrentUser(c)
	if !ok {
		s.logger.Warn("recording without an authenticated user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	comp := s.drafts.Get(user.ID)
	rec, started := comp.StartRecording()
	if !started {
		// one recording at a time; the active session keeps running
		s.send(conn, recordingEvent{Action: "busy"})
		return
	}
	s.logger.Debug("recording started", "user", user.ID, "remote", conn.RemoteAddr())
	s.send(conn, recordingEvent{Action: "recording"})

	s.readLoop(conn, rec)

	stopErr := comp.StopRecording()
	if rec.Discarded() {
		s.logger.Debug("recording dropped with its draft", "user", user.ID)
		s.send(conn, recordingEvent{Action: "discarded"})
		return
	}
	event := recordingEvent{Action: "stopped", Files: len(comp.Files())}
	if stopErr != nil {
		event.Errors = rejections(stopErr)
	}
	s.logger.Debug("recording stopped", "user", user.ID, "error", stopErr)
	s.send(conn, event)
}

func (s *RecordingServer) readLoop(conn *websocket.Conn, rec *composer.Recording) {
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("recording read error", "error", err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if _, err := rec.Write(msg); err != nil {
				return
			}
		case websocket.TextMessage:
			var control struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal(msg, &control); err != nil {
				s.logger.Debug("ignoring malformed control frame", "error", err)
				continue
			}
			if control.Action == "stop" {
				return
			}
		}
	}
}

func (s *RecordingServer) send(conn *websocket.Conn, event recordingEvent) {
	if err := conn.WriteJSON(event); err != nil {
		s.logger.Debug("recording event not delivered", "action", event.Action, "error", err)
	}
}
