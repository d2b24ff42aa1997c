package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"achilles/internal/testsupport"
)

func TestIngestThenCheckPath(t *testing.T) {
	env := setupCLITestEnv(t)

	src := filepath.Join(t.TempDir(), "My Film (2001).mp4")
	data := testsupport.WritePatternFile(t, src, 4096)

	out, _, err := runCLI(t, []string{"ingest", src, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	var result ingestResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode ingest: %v (%q)", err, out)
	}
	if !strings.HasPrefix(result.Path, "videos/") || !strings.HasSuffix(result.Path, "-My_Film__2001_.mp4") {
		t.Fatalf("unexpected stored path %q", result.Path)
	}
	if result.Bytes != int64(len(data)) {
		t.Fatalf("bytes = %d, want %d", result.Bytes, len(data))
	}
	got, err := os.ReadFile(filepath.Join(env.cfg.Paths.StorageRoot, filepath.FromSlash(result.Path)))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("stored file differs from source")
	}

	out, _, err = runCLI(t, []string{"check-path", result.Path, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("check-path: %v", err)
	}
	var verdict pathVerdict
	if err := json.Unmarshal([]byte(out), &verdict); err != nil {
		t.Fatalf("decode verdict: %v (%q)", err, out)
	}
	if !verdict.Allowed || verdict.Status != 200 || verdict.MIMEType != "video/mp4" || verdict.Size != 4096 {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
}

func TestIngestPosterGoesToPostersDir(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(t.TempDir(), "cover.jpg")
	testsupport.WritePatternFile(t, src, 100)

	out, _, err := runCLI(t, []string{"ingest", "--poster", src}, env.configPath)
	if err != nil {
		t.Fatalf("ingest poster: %v", err)
	}
	requireContains(t, out, "posters/")
}

func TestIngestRejectsDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"ingest", t.TempDir()}, env.configPath); err == nil {
		t.Fatal("expected directory source to be rejected")
	}
}

func TestCheckPathRejectsEscape(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check-path", "../../etc/passwd", "--json"}, env.configPath)
	if err == nil {
		t.Fatal("expected check-path to fail for an escaping path")
	}
	var verdict pathVerdict
	if err := json.Unmarshal([]byte(out), &verdict); err != nil {
		t.Fatalf("decode verdict: %v (%q)", err, out)
	}
	if verdict.Allowed || verdict.Status != 403 {
		t.Fatalf("unexpected verdict %+v", verdict)
	}

	out, _, err = runCLI(t, []string{"check-path", "videos/missing.mp4"}, env.configPath)
	if err == nil {
		t.Fatal("expected missing file to fail")
	}
	requireContains(t, out, "404 not found")
}
