package daemon_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"

	"achilles/internal/daemon"
	"achilles/internal/logging"
	"achilles/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	h := newHarness(t)
	t.Cleanup(func() { _ = h.daemon.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := h.daemon.Status()
	if !status.Running || status.Address == "" || status.StartedAt.IsZero() {
		t.Fatalf("expected running status, got %+v", status)
	}
	if status.LockFilePath != filepath.Join(h.cfg.Paths.DataDir, "achillesd.lock") {
		t.Fatalf("unexpected lock path %q", status.LockFilePath)
	}

	if err := h.daemon.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	resp, err := http.Get("http://" + status.Address + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health = %d: %s", resp.StatusCode, body)
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload["status"] != "healthy" {
		t.Fatalf("unexpected health body %q (%v)", body, err)
	}

	h.daemon.Stop()
	if h.daemon.Status().Running {
		t.Fatal("expected daemon to be stopped")
	}
	if h.daemon.Addr() != "" {
		t.Fatal("expected listener to be released")
	}

	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("restart failed: %v", err)
	}
	h.daemon.Stop()
}

func TestSecondInstanceIsLockedOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	if err := h.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(h.daemon.Stop)

	guard, err := daemon.BuildGuard(h.cfg)
	if err != nil {
		t.Fatalf("BuildGuard: %v", err)
	}
	other, err := daemon.New(h.cfg, h.store, guard, daemon.BuildStreamer(h.cfg, nil), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := other.Start(ctx); err == nil {
		other.Stop()
		t.Fatal("expected lock contention error")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := daemon.New(cfg, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
