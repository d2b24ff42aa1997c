package main

import (
	"context"
	"encoding/json"
	"net"
	"testing"

	"achilles/internal/catalog"
	"achilles/internal/daemon"
	"achilles/internal/logging"
)

func TestStatusReportsUnreachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Server.Bind = freeAddress(t)
	env.writeConfig(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v (%q)", err, out)
	}
	if report.Reachable || report.Health != nil || report.Error == "" {
		t.Fatalf("expected unreachable daemon, got %+v", report)
	}
	if len(report.Preflight) != 4 {
		t.Fatalf("expected bind check included, got %+v", report.Preflight)
	}

	text, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status text: %v", err)
	}
	requireContains(t, text, "not running")
	requireContains(t, text, "== Environment ==")
}

func TestStatusReadsRunningDaemonHealth(t *testing.T) {
	env := setupCLITestEnv(t)

	store, err := catalog.Open(env.cfg)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	if _, err := store.AddMovie(context.Background(), catalog.Movie{Title: "Heat"}); err != nil {
		t.Fatalf("add movie: %v", err)
	}
	guard, err := daemon.BuildGuard(env.cfg)
	if err != nil {
		t.Fatalf("build guard: %v", err)
	}
	d, err := daemon.New(env.cfg, store, guard, daemon.BuildStreamer(env.cfg, logging.NewNop()), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}

	env.cfg.Server.Bind = d.Addr()
	env.writeConfig(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v (%q)", err, out)
	}
	if !report.Reachable || report.Health == nil {
		t.Fatalf("expected reachable daemon, got %+v", report)
	}
	if report.Health.Status != "healthy" || report.Health.Database.Movies != 1 {
		t.Fatalf("unexpected health %+v", report.Health)
	}
	if len(report.Preflight) != 3 {
		t.Fatalf("expected bind check skipped while daemon runs, got %+v", report.Preflight)
	}
}

func TestProbeAddressRewritesWildcard(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0:4000":   "127.0.0.1:4000",
		":4000":          "127.0.0.1:4000",
		"[::]:4000":      "127.0.0.1:4000",
		"10.0.0.5:4000":  "10.0.0.5:4000",
		"localhost:8080": "localhost:8080",
	}
	for in, want := range cases {
		if got := probeAddress(in); got != want {
			t.Errorf("probeAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func freeAddress(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}
