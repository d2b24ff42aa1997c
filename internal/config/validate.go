package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	root := strings.TrimSpace(c.Paths.StorageRoot)
	if root == "" {
		return errors.New("paths.storage_root must be set")
	}
	if !filepath.IsAbs(root) {
		return fmt.Errorf("paths.storage_root must be absolute, got %q", root)
	}
	if filepath.Dir(root) == root {
		return errors.New("paths.storage_root must not be the filesystem root")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind must be host:port: %w", err)
	}
	return ensurePositiveMap(map[string]int{
		"server.read_header_timeout": c.Server.ReadHeaderTimeout,
		"server.idle_timeout":        c.Server.IdleTimeout,
	})
}

func (c *Config) validateStream() error {
	if c.Stream.ChunkSizeKiB <= 0 || c.Stream.ChunkSizeKiB > maxChunkSizeKiB {
		return fmt.Errorf("stream.chunk_size_kib must be between 1 and %d", maxChunkSizeKiB)
	}
	if c.Stream.MaxBytesPerSecond < 0 {
		return errors.New("stream.max_bytes_per_second must be >= 0")
	}
	switch c.Stream.CaseInsensitive {
	case "auto", "true", "false":
	default:
		return fmt.Errorf("stream.case_insensitive_paths must be auto, true, or false, got %q", c.Stream.CaseInsensitive)
	}
	for ext, mimeType := range c.Stream.MIMETypes {
		if !strings.Contains(mimeType, "/") {
			return fmt.Errorf("stream.mime_types[%q] must be a type/subtype value, got %q", ext, mimeType)
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
