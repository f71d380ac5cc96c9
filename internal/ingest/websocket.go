package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kinemetry/internal/pose"
)

const (
	// readWait bounds how long a live source waits for the next frame
	// before treating the connection as dead. Pose detectors stream tens
	// of frames per second; a minute of silence means the client is gone.
	readWait = time.Minute

	// frameBuffer smooths bursts without letting a stalled consumer pin
	// unbounded memory.
	frameBuffer = 64
)

// SocketSource reads frames from an accepted WebSocket connection. A read
// pump goroutine decodes text messages into frames; Next drains them in
// arrival order. The source owns the connection and closes it when done.
type SocketSource struct {
	conn   *websocket.Conn
	logger *slog.Logger

	frames chan *pose.Frame
	done   chan struct{}

	mu      sync.Mutex
	stats   Stats
	readErr error
	closed  bool
}

// NewSocketSource starts the read pump on an upgraded connection.
func NewSocketSource(conn *websocket.Conn, logger *slog.Logger) *SocketSource {
	if logger == nil {
		logger = slog.Default()
	}
	s := &SocketSource{
		conn:   conn,
		logger: logger.With("component", "ingest", "remote", conn.RemoteAddr().String()),
		frames: make(chan *pose.Frame, frameBuffer),
		done:   make(chan struct{}),
	}
	// The default handler echoes the peer's close frame from inside the
	// read pump, after which every write fails with ErrCloseSent. The
	// consumer still has final messages (session summary) to deliver on
	// this connection, so the echo is deferred: Close completes the
	// handshake once those writes are done.
	conn.SetCloseHandler(func(code int, text string) error { return nil })
	go s.readPump()
	return s
}

func (s *SocketSource) readPump() {
	defer close(s.frames)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(readWait))
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		frame, err := decodeFrame(data)
		if err != nil {
			s.mu.Lock()
			s.stats.Malformed++
			s.mu.Unlock()
			s.logger.Warn("skipping malformed frame", "error", err)
			continue
		}
		s.mu.Lock()
		s.stats.Decoded++
		s.mu.Unlock()
		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}
}

func (s *SocketSource) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		err = io.EOF
	}
	s.readErr = err
}

// Next blocks until a frame arrives, the peer disconnects (io.EOF on a
// normal close), or the context is cancelled.
func (s *SocketSource) Next(ctx context.Context) (*pose.Frame, error) {
	select {
	case frame, ok := <-s.frames:
		if !ok {
			s.mu.Lock()
			err := s.readErr
			s.mu.Unlock()
			if err == nil {
				err = io.EOF
			}
			if !errors.Is(err, io.EOF) {
				err = fmt.Errorf("read frame: %w", err)
			}
			return nil, err
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stats returns decode counters for the messages consumed so far.
func (s *SocketSource) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Landmarks reports the full-body vocabulary the stream protocol accepts.
func (s *SocketSource) Landmarks() []pose.Landmark { return pose.AllLandmarks }

// Close tears down the connection and stops the read pump.
func (s *SocketSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return s.conn.Close()
}
