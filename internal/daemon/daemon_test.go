package daemon_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"kinemetry/internal/daemon"
	"kinemetry/internal/ingest"
	"kinemetry/internal/logging"
	"kinemetry/internal/testsupport"
)

func newDaemon(t *testing.T) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status()
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.Bind == "" {
		t.Fatal("expected a listen address")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockContention(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	first, err := daemon.New(cfg, st, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(first.Stop)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	secondCfg := testsupport.NewConfig(t)
	secondCfg.Daemon.LockPath = cfg.Daemon.LockPath
	secondStore := testsupport.MustOpenStore(t, secondCfg)
	second, err := daemon.New(secondCfg, secondStore, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(second.Stop)

	if err := second.Start(ctx); err == nil {
		t.Fatal("expected second instance to be refused the lock")
	}

	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("expected lock to be free after stop, got %v", err)
	}
}

func TestStreamSessionPersists(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	url := "ws://" + d.Addr() + "/v1/stream?exercise=shoulder-abduction&mode=offline"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		frame := testsupport.Body(start.Add(time.Duration(i) * 50 * time.Millisecond))
		payload, err := ingest.EncodeFrame(frame)
		if err != nil {
			t.Fatalf("encode frame: %v", err)
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second)); err != nil {
		t.Fatalf("write close: %v", err)
	}

	var sessionID string
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("expected a summary before close, got %v", err)
		}
		var msg struct {
			Type      string `json:"type"`
			SessionID string `json:"session_id"`
			Error     string `json:"error"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		if msg.Type == "error" {
			t.Fatalf("server reported error: %s", msg.Error)
		}
		sessionID = msg.SessionID
		if msg.Type == "summary" {
			break
		}
	}

	row, err := st.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if row == nil {
		t.Fatalf("session %s not persisted", sessionID)
	}
	if !row.Finished() {
		t.Fatal("expected session to be finished after stream close")
	}
	if row.ExerciseID != "shoulder-abduction" {
		t.Fatalf("unexpected exercise %q", row.ExerciseID)
	}
}
