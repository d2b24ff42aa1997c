package preflight

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"achilles/internal/config"
)

func TestCheckDirectory_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectory("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectory_NotExist(t *testing.T) {
	result := CheckDirectory("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectory_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectory("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStorageRoot_ReadOnlyIsEnough(t *testing.T) {
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	result := CheckStorageRoot(dir)
	if !result.Passed {
		t.Fatalf("expected read-only storage root to pass, got: %s", result.Detail)
	}
}

func TestCheckStorageRoot_Missing(t *testing.T) {
	result := CheckStorageRoot(filepath.Join(t.TempDir(), "missing"))
	if result.Passed || result.Name != "Storage root" {
		t.Fatalf("expected failure, got %+v", result)
	}
}

func TestCheckBindAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	if result := CheckBindAddress(ln.Addr().String()); result.Passed {
		t.Fatalf("expected occupied address to fail, got %+v", result)
	}
	if result := CheckBindAddress("127.0.0.1:0"); !result.Passed {
		t.Fatalf("expected ephemeral port to pass, got %+v", result)
	}
}

func TestRunAllAndFailed(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StorageRoot = filepath.Join(base, "storage")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Server.Bind = "127.0.0.1:0"
	if err := os.MkdirAll(cfg.Paths.StorageRoot, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatal(err)
	}

	results := RunAll(&cfg, false)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("expected only the log directory to fail, got %+v", failed)
	}
	if got := RunAll(&cfg, true); len(got) != 3 {
		t.Fatalf("expected bind check to be skipped, got %d results", len(got))
	}
}
