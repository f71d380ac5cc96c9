package testsupport

import (
	"context"
	"testing"
	"time"

	"kinemetry/internal/config"
	"kinemetry/internal/store"
)

// MustOpenStore opens a session store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustCreateSession records a started session row for tests.
func MustCreateSession(t testing.TB, st *store.Store, id, exerciseID string, startedAt time.Time) {
	t.Helper()

	if err := st.CreateSession(context.Background(), id, exerciseID, "offline", startedAt); err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
}
