package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"kinemetry/internal/anatomy"
	"kinemetry/internal/exercise"
	"kinemetry/internal/feedback"
	"kinemetry/internal/ingest"
	"kinemetry/internal/measurement"
	"kinemetry/internal/session"
)

// streamServer owns the HTTP listener: a status endpoint, a stored
// session listing and the websocket pose-stream endpoint.
type streamServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	upgrader websocket.Upgrader

	// ctx is set once in start, before the listener accepts anything.
	ctx context.Context

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	conns    sync.WaitGroup
}

func newStreamServer(bind string, d *Daemon, logger *slog.Logger) *streamServer {
	srv := &streamServer{
		bind:   strings.TrimSpace(bind),
		logger: logger.With(slog.String("component", "stream-server")),
		daemon: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/status", srv.handleStatus)
	mux.HandleFunc("/v1/sessions", srv.handleSessions)
	mux.HandleFunc("/v1/exercises", srv.handleExercises)
	mux.HandleFunc("/v1/stream", srv.handleStream)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv
}

func (s *streamServer) start(ctx context.Context) error {
	s.ctx = ctx
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("stream listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("stream server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("stream server listening", slog.String("address", listener.Addr().String()))
	return nil
}

func (s *streamServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)

	s.mu.Lock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
	s.mu.Unlock()
	s.conns.Wait()
}

func (s *streamServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *streamServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st := s.daemon.Status()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"running":         st.Running,
		"bind":            st.Bind,
		"store_path":      st.StoreDBPath,
		"active_sessions": st.ActiveSessions,
	})
}

func (s *streamServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rows, err := s.daemon.store.ListSessions(r.Context(), 50)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, rows)
}

func (s *streamServer) handleExercises(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, exercise.Catalog(anatomy.SideLeft))
}

// handleStream upgrades the connection and runs one session over it.
// Query parameters: exercise (template ID, required), side (left or
// right, default left), mode (live or offline, default from config).
func (s *streamServer) handleStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	side := anatomy.SideLeft
	switch strings.ToLower(query.Get("side")) {
	case "", "left":
	case "right":
		side = anatomy.SideRight
	default:
		s.writeError(w, http.StatusBadRequest, "side must be left or right")
		return
	}

	ex, ok := exercise.Lookup(query.Get("exercise"), side)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown exercise "+query.Get("exercise"))
		return
	}

	opts := session.OptionsFromConfig(s.daemon.cfg)
	switch strings.ToLower(query.Get("mode")) {
	case "":
	case "live":
		opts.Mode = feedback.ModeLive
	case "offline":
		opts.Mode = feedback.ModeOffline
	default:
		s.writeError(w, http.StatusBadRequest, "mode must be live or offline")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	s.conns.Add(1)
	go func() {
		defer s.conns.Done()
		s.runStream(conn, ex, opts)
	}()
}

// runStream drives one client session: frames in, tick results out,
// summary on close. The session is persisted tick by tick.
func (s *streamServer) runStream(conn *websocket.Conn, ex exercise.Exercise, opts session.Options) {
	ctx := s.ctx
	src := ingest.NewSocketSource(conn, s.logger)
	defer src.Close()

	sess, err := s.daemon.manager.Start(ex, opts)
	if err != nil {
		s.logger.Error("session start failed", slog.String("error", err.Error()))
		s.writeSocketError(conn, err.Error())
		return
	}
	logger := s.logger.With(slog.String("session_id", sess.ID()))

	if err := s.daemon.store.CreateSession(ctx, sess.ID(), ex.ID, string(opts.Mode), sess.StartedAt()); err != nil {
		logger.Error("session persist failed", slog.String("error", err.Error()))
		_, _ = s.daemon.manager.Stop(sess.ID())
		s.writeSocketError(conn, "session could not be persisted")
		return
	}
	s.writeSocketJSON(conn, startedMessage{Type: "session_started", SessionID: sess.ID(), Exercise: ex.ID, Mode: string(opts.Mode)})

	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("stream read failed", slog.String("error", err.Error()))
			break
		}

		res, err := sess.Tick(ctx, frame)
		if err != nil {
			logger.Warn("tick failed", slog.String("error", err.Error()))
			break
		}
		if res.Measurements != nil {
			if err := s.daemon.store.SaveTick(ctx, sess.ID(), res.Measurements); err != nil {
				logger.Warn("tick persist failed", slog.String("error", err.Error()))
			}
		}
		if res.Event == measurement.EventRepComplete {
			kinds := make([]string, 0, len(res.RepKinds))
			for _, k := range res.RepKinds {
				kinds = append(kinds, string(k))
			}
			if err := s.daemon.store.SaveRep(ctx, sess.ID(), res.Reps, res.RepPeakDegrees, kinds, res.Timestamp); err != nil {
				logger.Warn("rep persist failed", slog.String("error", err.Error()))
			}
		}
		s.writeSocketJSON(conn, tickMessage(res))
	}

	summary, err := s.daemon.manager.Stop(sess.ID())
	if err != nil {
		logger.Warn("session stop failed", slog.String("error", err.Error()))
		return
	}
	if err := s.daemon.store.FinishSession(context.Background(), summary); err != nil {
		logger.Error("summary persist failed", slog.String("error", err.Error()))
	}
	stats := src.Stats()
	logger.Info("stream closed",
		slog.Int("frames", stats.Decoded),
		slog.Int("malformed", stats.Malformed),
		slog.Int("reps", summary.Reps))
	s.writeSocketJSON(conn, summaryMessage(summary))
}

func (s *streamServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("response encode failed", slog.String("error", err.Error()))
	}
}

func (s *streamServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *streamServer) writeSocketJSON(conn *websocket.Conn, payload any) {
	if err := conn.WriteJSON(payload); err != nil {
		s.logger.Debug("socket write failed", slog.String("error", err.Error()))
	}
}

func (s *streamServer) writeSocketError(conn *websocket.Conn, message string) {
	s.writeSocketJSON(conn, map[string]string{"type": "error", "error": message})
}
