package pathguard

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/text/cases"

	"achilles/internal/mediatype"
	"achilles/internal/services"
)

const component = "pathguard"

// Options tunes how a Guard compares paths.
type Options struct {
	// CaseInsensitive folds case before comparing, for filesystems such as
	// APFS or NTFS. The path handed back is never folded.
	CaseInsensitive bool
	// ResolveSymlinks evaluates links on both the root and the candidate and
	// re-checks containment on the result.
	ResolveSymlinks bool
	// MediaTypes supplies the extension table; nil means mediatype.Default().
	MediaTypes mediatype.Table
}

// ResolvedFile describes an approved regular file under the storage root.
type ResolvedFile struct {
	AbsolutePath string
	SizeBytes    int64
	ModTime      time.Time
	MIMEType     string
}

// Guard validates paths against a fixed storage root. It holds no mutable
// state and is safe for concurrent use.
type Guard struct {
	root         string
	resolvedRoot string
	opts         Options
	types        mediatype.Table
}

// New builds a Guard for root. The root does not need to exist yet.
func New(root string, opts Options) (*Guard, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("pathguard: storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("pathguard: resolve storage root: %w", err)
	}
	g := &Guard{root: abs, resolvedRoot: abs, opts: opts, types: opts.MediaTypes}
	if g.types == nil {
		g.types = mediatype.Default()
	}
	if opts.ResolveSymlinks {
		if evaluated, err := filepath.EvalSymlinks(abs); err == nil {
			g.resolvedRoot = evaluated
		}
	}
	return g, nil
}

// Root returns the canonical absolute storage root.
func (g *Guard) Root() string {
	return g.root
}

// Contains performs the lexical containment check and returns the canonical
// absolute path. It never touches the filesystem.
func (g *Guard) Contains(requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return "", services.Wrap(services.ErrBadRequest, component, "contains", "path parameter is required", nil)
	}
	if strings.ContainsRune(requested, 0) {
		return "", services.Wrap(services.ErrBadRequest, component, "contains", "path contains NUL byte", nil)
	}
	candidate := requested
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(g.root, candidate)
	}
	candidate = filepath.Clean(candidate)
	if !g.within(g.root, candidate) {
		return "", forbidden(candidate)
	}
	return candidate, nil
}

// Resolve validates requested and stats it. Missing paths and anything that
// is not a regular file, including the root directory itself, are NotFound.
func (g *Guard) Resolve(requested string) (ResolvedFile, error) {
	candidate, err := g.Contains(requested)
	if err != nil {
		return ResolvedFile{}, err
	}
	if g.opts.ResolveSymlinks {
		evaluated, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			return ResolvedFile{}, statError(candidate, err)
		}
		if !g.within(g.resolvedRoot, evaluated) {
			return ResolvedFile{}, forbidden(evaluated)
		}
		candidate = evaluated
	}

	info, err := os.Stat(candidate)
	if err != nil {
		return ResolvedFile{}, statError(candidate, err)
	}
	if !info.Mode().IsRegular() {
		return ResolvedFile{}, services.Wrap(services.ErrNotFound, component, "resolve", fmt.Sprintf("%s is not a regular file", candidate), nil)
	}
	return ResolvedFile{
		AbsolutePath: candidate,
		SizeBytes:    info.Size(),
		ModTime:      info.ModTime(),
		MIMEType:     g.types.Lookup(candidate),
	}, nil
}

func (g *Guard) within(root, candidate string) bool {
	r, c := g.key(root), g.key(candidate)
	if c == r {
		return true
	}
	prefix := r
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(c, prefix)
}

func (g *Guard) key(path string) string {
	if !g.opts.CaseInsensitive {
		return path
	}
	// Casers carry transform state, so each comparison gets its own.
	return cases.Fold().String(path)
}

func forbidden(path string) error {
	return services.Wrap(services.ErrForbidden, component, "contains", fmt.Sprintf("%s is outside the storage root", path), nil)
}

func statError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return services.Wrap(services.ErrNotFound, component, "resolve", path, err)
	}
	return services.Wrap(services.ErrIO, component, "resolve", path, err)
}
