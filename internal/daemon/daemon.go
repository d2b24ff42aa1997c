package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"achilles/internal/catalog"
	"achilles/internal/config"
	"achilles/internal/logging"
	"achilles/internal/mediatype"
	"achilles/internal/pathguard"
	"achilles/internal/stream"
)

// Catalog is the lookup the stream routes and health endpoint depend on.
type Catalog interface {
	VideoPath(ctx context.Context, kind catalog.Kind, id int64) (string, bool, error)
	Counts(ctx context.Context) (catalog.Counts, error)
}

// Daemon serves the API and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	catalog  Catalog
	guard    *pathguard.Guard
	streamer *stream.Streamer
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool         `json:"running"`
	Address      string       `json:"address,omitempty"`
	StartedAt    time.Time    `json:"started_at,omitzero"`
	StorageRoot  string       `json:"storage_root"`
	CatalogPath  string       `json:"catalog_path"`
	LockFilePath string       `json:"lock_file_path"`
	Streams      stream.Stats `json:"streams"`
}

// BuildGuard constructs the path guard described by cfg.
func BuildGuard(cfg *config.Config) (*pathguard.Guard, error) {
	return pathguard.New(cfg.Paths.StorageRoot, pathguard.Options{
		CaseInsensitive: cfg.CaseInsensitivePaths(),
		ResolveSymlinks: cfg.Stream.ResolveSymlinks,
		MediaTypes:      mediatype.Default().With(cfg.Stream.MIMETypes),
	})
}

// BuildStreamer constructs the range streamer described by cfg.
func BuildStreamer(cfg *config.Config, logger *slog.Logger) *stream.Streamer {
	return stream.New(stream.Options{
		ChunkSize:        cfg.ChunkSize(),
		BytesPerSecond:   cfg.Stream.MaxBytesPerSecond,
		WriteIdleTimeout: cfg.WriteIdleTimeout(),
		Logger:           logger,
	})
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store Catalog, guard *pathguard.Guard, streamer *stream.Streamer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || guard == nil || streamer == nil {
		return nil, errors.New("daemon requires config, catalog, path guard, and streamer")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		catalog:  store,
		guard:    guard,
		streamer: streamer,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another achilles daemon instance holds %s", d.lockPath)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("achilles daemon started",
		logging.String("address", d.api.addr()),
		logging.String("storage_root", d.guard.Root()),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop shuts the API server down and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("achilles daemon stopped", logging.Int64("bytes_sent", d.streamer.Stats().BytesSent))
}

// Close stops the daemon and closes the catalog when it supports closing.
func (d *Daemon) Close() error {
	d.Stop()
	if closer, ok := d.catalog.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// Handler returns the full middleware-wrapped HTTP handler.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Addr returns the bound listener address while running.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()
	status := Status{
		Running:      d.running.Load(),
		StorageRoot:  d.guard.Root(),
		CatalogPath:  d.cfg.CatalogPath(),
		LockFilePath: d.lockPath,
		Streams:      d.streamer.Stats(),
	}
	if status.Running {
		status.Address = d.api.addr()
		status.StartedAt = startedAt
	}
	return status
}
