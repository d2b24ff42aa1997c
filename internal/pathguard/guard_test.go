package pathguard_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"achilles/internal/mediatype"
	"achilles/internal/pathguard"
	"achilles/internal/services"
)

func newStorage(t *testing.T) (string, string) {
	t.Helper()
	parent := t.TempDir()
	root := filepath.Join(parent, "storage")
	if err := os.MkdirAll(filepath.Join(root, "videos"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "videos", "film.mp4"), []byte("0123456789"), 0o644); err != nil {
		t.Fatalf("write film: %v", err)
	}
	return parent, root
}

func mustGuard(t *testing.T, root string, opts pathguard.Options) *pathguard.Guard {
	t.Helper()
	g, err := pathguard.New(root, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestResolveAcceptsFileUnderRoot(t *testing.T) {
	_, root := newStorage(t)
	g := mustGuard(t, root, pathguard.Options{})

	for _, requested := range []string{
		filepath.Join(root, "videos", "film.mp4"),
		filepath.Join(root, "videos", ".", "extra", "..", "film.mp4"),
		root + string(filepath.Separator) + "videos" + string(filepath.Separator) + string(filepath.Separator) + "film.mp4",
		filepath.Join("videos", "film.mp4"),
	} {
		file, err := g.Resolve(requested)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", requested, err)
		}
		if file.AbsolutePath != filepath.Join(root, "videos", "film.mp4") {
			t.Fatalf("Resolve(%q) path = %q", requested, file.AbsolutePath)
		}
		if file.SizeBytes != 10 || file.MIMEType != "video/mp4" {
			t.Fatalf("unexpected resolved file %+v", file)
		}
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	parent, root := newStorage(t)
	sibling := filepath.Join(parent, "storage-evil")
	if err := os.MkdirAll(sibling, 0o755); err != nil {
		t.Fatalf("mkdir sibling: %v", err)
	}
	secret := filepath.Join(sibling, "secret.txt")
	if err := os.WriteFile(secret, []byte("nope"), 0o644); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	g := mustGuard(t, root, pathguard.Options{})

	inputs := []string{
		filepath.Join("..", "..", "etc", "passwd"),
		filepath.Join(root, "..", "..", "etc", "passwd"),
		filepath.Join(root, "videos", "..", "..", "storage-evil", "secret.txt"),
		secret,
		sibling,
		parent,
		filepath.Join(string(filepath.Separator), "etc", "passwd"),
	}
	for _, requested := range inputs {
		_, err := g.Resolve(requested)
		if !errors.Is(err, services.ErrForbidden) {
			t.Fatalf("Resolve(%q) err = %v, want forbidden", requested, err)
		}
	}
}

func TestResolveNotFoundCases(t *testing.T) {
	_, root := newStorage(t)
	g := mustGuard(t, root, pathguard.Options{})

	for _, requested := range []string{
		root,
		filepath.Join(root, "videos"),
		filepath.Join(root, "videos", "missing.mp4"),
		filepath.Join(root, "videos", "film.mp4", "child"),
	} {
		_, err := g.Resolve(requested)
		if !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("Resolve(%q) err = %v, want not found", requested, err)
		}
	}
}

func TestResolveBadRequest(t *testing.T) {
	_, root := newStorage(t)
	g := mustGuard(t, root, pathguard.Options{})

	for _, requested := range []string{"", "   ", "videos/film\x00.mp4"} {
		_, err := g.Resolve(requested)
		if !errors.Is(err, services.ErrBadRequest) {
			t.Fatalf("Resolve(%q) err = %v, want bad request", requested, err)
		}
	}
}

func TestContainsCaseFolding(t *testing.T) {
	_, root := newStorage(t)
	upper := filepath.Join(filepath.Dir(root), "STORAGE", "videos", "film.mp4")

	strict := mustGuard(t, root, pathguard.Options{})
	if _, err := strict.Contains(upper); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected case-sensitive guard to reject %q, got %v", upper, err)
	}

	folded := mustGuard(t, root, pathguard.Options{CaseInsensitive: true})
	got, err := folded.Contains(upper)
	if err != nil {
		t.Fatalf("expected case-insensitive guard to accept %q: %v", upper, err)
	}
	if got != upper {
		t.Fatalf("returned path must keep its original case, got %q", got)
	}
	if _, err := folded.Contains(filepath.Join(filepath.Dir(root), "STORAGE-evil", "x")); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected sibling prefix to stay forbidden under folding, got %v", err)
	}
}

func TestSymlinkContainmentModes(t *testing.T) {
	parent, root := newStorage(t)
	outside := filepath.Join(parent, "outside")
	if err := os.MkdirAll(outside, 0o755); err != nil {
		t.Fatalf("mkdir outside: %v", err)
	}
	if err := os.WriteFile(filepath.Join(outside, "leak.txt"), []byte("leak"), 0o644); err != nil {
		t.Fatalf("write leak: %v", err)
	}
	link := filepath.Join(root, "linked")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	inner := filepath.Join(root, "film-link.mp4")
	if err := os.Symlink(filepath.Join(root, "videos", "film.mp4"), inner); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	requested := filepath.Join(link, "leak.txt")

	logical := mustGuard(t, root, pathguard.Options{})
	if _, err := logical.Resolve(requested); err != nil {
		t.Fatalf("logical containment should follow the link: %v", err)
	}

	strict := mustGuard(t, root, pathguard.Options{ResolveSymlinks: true})
	if _, err := strict.Resolve(requested); !errors.Is(err, services.ErrForbidden) {
		t.Fatalf("expected symlink escape to be forbidden, got %v", err)
	}
	file, err := strict.Resolve(inner)
	if err != nil {
		t.Fatalf("link staying inside root should resolve: %v", err)
	}
	if file.SizeBytes != 10 {
		t.Fatalf("unexpected size %d", file.SizeBytes)
	}
}

func TestMediaTypeOverrides(t *testing.T) {
	_, root := newStorage(t)
	g := mustGuard(t, root, pathguard.Options{MediaTypes: mediatype.Default().With(map[string]string{".mp4": "video/x-custom"})})
	file, err := g.Resolve(filepath.Join(root, "videos", "film.mp4"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if file.MIMEType != "video/x-custom" {
		t.Fatalf("MIMEType = %q", file.MIMEType)
	}
}

func TestNewRequiresRoot(t *testing.T) {
	if _, err := pathguard.New("  ", pathguard.Options{}); err == nil {
		t.Fatal("expected error for empty root")
	}
}
