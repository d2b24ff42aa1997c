package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StorageRoot string `toml:"storage_root"`
	DataDir     string `toml:"data_dir"`
	LogDir      string `toml:"log_dir"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Bind              string `toml:"bind"`
	APIToken          string `toml:"api_token"`
	ClientOrigin      string `toml:"client_origin"`
	ReadHeaderTimeout int    `toml:"read_header_timeout"`
	IdleTimeout       int    `toml:"idle_timeout"`
}

// Stream contains media streaming configuration.
type Stream struct {
	ChunkSizeKiB      int               `toml:"chunk_size_kib"`
	MaxBytesPerSecond int64             `toml:"max_bytes_per_second"`
	WriteIdleTimeout  int               `toml:"write_idle_timeout"`
	ResolveSymlinks   bool              `toml:"resolve_symlinks"`
	CaseInsensitive   string            `toml:"case_insensitive_paths"`
	FileCacheMaxAge   int               `toml:"file_cache_max_age"`
	MIMETypes         map[string]string `toml:"mime_types"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Achilles.
//
// Configuration sections by subsystem:
//   - Paths: storage root, catalog data directory, log directory
//   - Server: bind address, optional bearer token, CORS origin, timeouts
//   - Stream: chunking, bandwidth cap, idle deadline, path guard policy, MIME overrides
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Server  Server  `toml:"server"`
	Stream  Stream  `toml:"stream"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/achilles/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("achilles.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the storage layout and the daemon's own directories.
// The storage root gains videos/ and posters/ subdirectories, mirroring where
// uploads are written.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.StorageRoot,
		c.VideosDir(),
		c.PostersDir(),
		c.Paths.DataDir,
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// VideosDir returns the storage subdirectory for ingested video files.
func (c *Config) VideosDir() string {
	return filepath.Join(c.Paths.StorageRoot, "videos")
}

// PostersDir returns the storage subdirectory for ingested poster images.
func (c *Config) PostersDir() string {
	return filepath.Join(c.Paths.StorageRoot, "posters")
}

// CatalogPath returns the SQLite catalog database location.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "achillesd.lock")
}

// CaseInsensitivePaths reports whether path containment comparisons should
// fold case. "auto" follows the platform default filesystem behaviour.
func (c *Config) CaseInsensitivePaths() bool {
	switch c.Stream.CaseInsensitive {
	case "true":
		return true
	case "false":
		return false
	default:
		return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
	}
}

// ChunkSize returns the streaming copy buffer size in bytes.
func (c *Config) ChunkSize() int {
	return c.Stream.ChunkSizeKiB * 1024
}

// WriteIdleTimeout returns the per-chunk write deadline, zero when disabled.
func (c *Config) WriteIdleTimeout() time.Duration {
	return time.Duration(c.Stream.WriteIdleTimeout) * time.Second
}

// ReadHeaderTimeout returns the HTTP server header read timeout.
func (c *Config) ReadHeaderTimeout() time.Duration {
	return time.Duration(c.Server.ReadHeaderTimeout) * time.Second
}

// IdleTimeout returns the HTTP server keep-alive idle timeout.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
