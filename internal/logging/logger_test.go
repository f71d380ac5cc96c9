package logging_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kinemetry/internal/logging"
)

func TestNewConsoleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "kinemetry.log")
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("session started",
		slog.String("component", "session"),
		slog.String("session_id", "abc"),
	)

	data, err := readFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(data, "INFO session: session started") {
		t.Fatalf("unexpected console line: %q", data)
	}
	if !strings.Contains(data, "session_id=abc") {
		t.Fatalf("missing attr in line: %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDebugLevelEnablesDebugRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("tick", slog.Int("seq", 7))

	data, err := readFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(data, "DEBUG") || !strings.Contains(data, "seq=7") {
		t.Fatalf("debug record missing: %q", data)
	}
}

func TestNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Handler().Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop handler should report disabled")
	}
	logger.Error("ignored")
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
