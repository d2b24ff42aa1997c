package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeStream()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageRoot) == "" || c.Paths.StorageRoot == defaultStorageRoot {
		if value, ok := os.LookupEnv("ACHILLES_STORAGE_ROOT"); ok && strings.TrimSpace(value) != "" {
			c.Paths.StorageRoot = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.Paths.StorageRoot) == "" {
		c.Paths.StorageRoot = defaultStorageRoot
	}
	if c.Paths.StorageRoot, err = expandPath(strings.TrimSpace(c.Paths.StorageRoot)); err != nil {
		return fmt.Errorf("paths.storage_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("ACHILLES_API_TOKEN"); ok {
			c.Server.APIToken = strings.TrimSpace(value)
		}
	}
	c.Server.ClientOrigin = strings.TrimSpace(c.Server.ClientOrigin)
	if c.Server.ClientOrigin == "" {
		if value, ok := os.LookupEnv("CLIENT_ORIGIN"); ok {
			c.Server.ClientOrigin = strings.TrimSpace(value)
		}
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		c.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = defaultIdleTimeout
	}
}

func (c *Config) normalizeStream() {
	if c.Stream.ChunkSizeKiB <= 0 {
		c.Stream.ChunkSizeKiB = defaultChunkSizeKiB
	}
	if c.Stream.WriteIdleTimeout < 0 {
		c.Stream.WriteIdleTimeout = 0
	}
	if c.Stream.FileCacheMaxAge < 0 {
		c.Stream.FileCacheMaxAge = 0
	}
	c.Stream.CaseInsensitive = strings.ToLower(strings.TrimSpace(c.Stream.CaseInsensitive))
	if c.Stream.CaseInsensitive == "" {
		c.Stream.CaseInsensitive = defaultCaseInsensitive
	}
	if len(c.Stream.MIMETypes) > 0 {
		types := make(map[string]string, len(c.Stream.MIMETypes))
		for ext, mimeType := range c.Stream.MIMETypes {
			ext = strings.ToLower(strings.TrimSpace(ext))
			mimeType = strings.TrimSpace(mimeType)
			if ext == "" || mimeType == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			types[ext] = mimeType
		}
		c.Stream.MIMETypes = types
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
