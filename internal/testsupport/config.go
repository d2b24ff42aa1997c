package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"achilles/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The storage root and its videos/posters subdirectories exist on return.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StorageRoot = filepath.Join(base, "storage")
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Stream.CaseInsensitive = "false"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAPIToken enables bearer authentication on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.APIToken = token
	}
}

// WithClientOrigin sets the allowed CORS origin.
func WithClientOrigin(origin string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.ClientOrigin = origin
	}
}

// WithStorageRoot points the storage root at dir instead of the generated one.
func WithStorageRoot(dir string) ConfigOption {
	return func(b *configBuilder) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("mkdir storage root: %v", err)
		}
		b.cfg.Paths.StorageRoot = dir
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
