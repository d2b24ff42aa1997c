package config

const (
	defaultStorageRoot       = "~/.local/share/achilles/storage"
	defaultDataDir           = "~/.local/share/achilles"
	defaultLogDir            = "~/.local/share/achilles/logs"
	defaultBind              = "127.0.0.1:4000"
	defaultReadHeaderTimeout = 5
	defaultIdleTimeout       = 60
	defaultChunkSizeKiB      = 256
	defaultWriteIdleTimeout  = 30
	defaultCaseInsensitive   = "auto"
	defaultFileCacheMaxAge   = 31536000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	maxChunkSizeKiB          = 16 * 1024
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageRoot: defaultStorageRoot,
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
		},
		Server: Server{
			Bind:              defaultBind,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			IdleTimeout:       defaultIdleTimeout,
		},
		Stream: Stream{
			ChunkSizeKiB:     defaultChunkSizeKiB,
			WriteIdleTimeout: defaultWriteIdleTimeout,
			CaseInsensitive:  defaultCaseInsensitive,
			FileCacheMaxAge:  defaultFileCacheMaxAge,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
