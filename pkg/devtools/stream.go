package devtools

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/hookrt/pkg/hooks"
	"github.com/vango-dev/hookrt/pkg/host"
)

// StreamMessage is one message of the /ws commit stream.
type StreamMessage struct {
	Type      string               `json:"type"`
	Instances []hooks.InstanceInfo `json:"instances,omitempty"`
	Commit    *host.Commit         `json:"commit,omitempty"`
}

// handleStream upgrades to a WebSocket and forwards host commits until the
// client disconnects, the host closes or the server is closed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the snapshot so no commit falls between the two.
	events, cancel := s.host.Subscribe(s.streamBuffer)
	defer cancel()

	snap, err := s.host.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	if !s.track(conn) {
		conn.Close()
		return
	}

	// The reader only detects disconnects; clients send nothing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
					websocket.CloseNormalClosure) {
					s.logger.Debug("stream read error", "error", err)
				}
				return
			}
		}
	}()
	defer func() {
		s.untrack(conn)
		conn.Close()
		<-gone
	}()

	s.logger.Debug("stream opened", "remote", r.RemoteAddr)
	if err := s.send(conn, StreamMessage{Type: "snapshot", Instances: snap}); err != nil {
		return
	}

	for {
		select {
		case c, ok := <-events:
			if !ok {
				s.closeStream(conn, "host closed")
				return
			}
			if err := s.send(conn, StreamMessage{Type: "commit", Commit: &c}); err != nil {
				s.logger.Debug("stream write failed", "error", err)
				return
			}
		case <-gone:
			s.logger.Debug("stream closed", "remote", r.RemoteAddr)
			return
		}
	}
}

func (s *Server) send(conn *websocket.Conn, msg StreamMessage) error {
	conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	return conn.WriteJSON(msg)
}

func (s *Server) closeStream(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.streams[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, conn)
}
