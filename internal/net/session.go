package net

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Session is one authenticated websocket connection. All writes go
// through the out channel so the writer goroutine owns the socket.
//
// out is never closed: result goroutines and the tick-loop notice
// fan-out may still be sending when the reader side tears the session
// down. Shutdown is signalled by closeCh and the closed flag instead.
type Session struct {
	UID  string
	conn *websocket.Conn

	out       chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	mu    sync.Mutex
	areas map[string]struct{}
}

func newSession(conn *websocket.Conn, uid string, outSize int) *Session {
	if outSize < 1 {
		outSize = 64
	}
	return &Session{
		UID:     uid,
		conn:    conn,
		out:     make(chan []byte, outSize),
		closeCh: make(chan struct{}),
		areas:   make(map[string]struct{}),
	}
}

// Send queues a message for the writer goroutine. Messages to a closed
// session are dropped, and a session that cannot keep up loses notices
// rather than stalling the server.
func (s *Session) Send(v any) {
	if s.closed.Load() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.out <- b:
	default:
	}
}

// SubscribeArea marks the session as interested in an area's notices.
// Sessions subscribe implicitly through the areas they act in.
func (s *Session) SubscribeArea(areaID string) {
	s.mu.Lock()
	s.areas[areaID] = struct{}{}
	s.mu.Unlock()
}

func (s *Session) InArea(areaID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.areas[areaID]
	return ok
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		if s.conn != nil {
			_ = s.conn.Close()
		}
	})
}

// writeLoop drains out until the session closes or a write fails.
func (s *Session) writeLoop(writeTimeout time.Duration) {
	for {
		select {
		case <-s.closeCh:
			return
		case b := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				s.close()
				return
			}
		}
	}
}
