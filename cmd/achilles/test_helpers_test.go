package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"achilles/internal/config"
	"achilles/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	home := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(home, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("ACHILLES_STORAGE_ROOT", "")
	t.Setenv("ACHILLES_API_TOKEN", "")
	t.Setenv("CLIENT_ORIGIN", "")

	configPath := filepath.Join(testsupport.BaseDir(cfg), "achilles.toml")
	env := &cliTestEnv{cfg: cfg, configPath: configPath}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstorage_root = %q\ndata_dir = %q\nlog_dir = %q\n\n[server]\nbind = %q\n\n[stream]\ncase_insensitive_paths = \"false\"\n",
		e.cfg.Paths.StorageRoot,
		e.cfg.Paths.DataDir,
		e.cfg.Paths.LogDir,
		e.cfg.Server.Bind,
	)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
