package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"achilles/internal/catalog"
	"achilles/internal/config"
	"achilles/internal/logging"
)

const shutdownTimeout = 5 * time.Second

type apiServer struct {
	bind              string
	cacheMaxAge       int
	readHeaderTimeout time.Duration
	idleTimeout       time.Duration
	logger            *slog.Logger
	daemon            *Daemon
	handler           http.Handler

	mu           sync.Mutex
	server       *http.Server
	listener     net.Listener
	shutdownOnce *sync.Once
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:              strings.TrimSpace(cfg.Server.Bind),
		cacheMaxAge:       cfg.Stream.FileCacheMaxAge,
		readHeaderTimeout: cfg.ReadHeaderTimeout(),
		idleTimeout:       cfg.IdleTimeout(),
		logger:            logging.NewComponentLogger(logger, "api-server"),
		daemon:            d,
	}

	mux := http.NewServeMux()
	// GET patterns also match HEAD.
	mux.HandleFunc("GET /health", srv.handleHealth)
	mux.HandleFunc("GET /stream/movie/{id}", srv.handleStreamByID(catalog.KindMovie))
	mux.HandleFunc("GET /stream/episode/{id}", srv.handleStreamByID(catalog.KindEpisode))
	mux.HandleFunc("GET /stream/part/{id}", srv.handleStreamByID(catalog.KindPart))
	mux.HandleFunc("GET /stream/file", srv.handleStreamFile)

	var h http.Handler = mux
	h = authMiddleware(cfg.Server.APIToken, h, "/health")
	h = corsMiddleware(cfg.Server.ClientOrigin, h)
	h = accessLogMiddleware(srv.logger, h)
	h = requestIDMiddleware(h)
	srv.handler = h
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.readHeaderTimeout,
		IdleTimeout:       s.idleTimeout,
		MaxHeaderBytes:    64 << 10,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		// No WriteTimeout: bodies may run for hours. The streamer sets a
		// per-chunk write deadline instead.
	}
	once := &sync.Once{}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.shutdownOnce = once
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.shutdown(server, once)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server, once := s.server, s.shutdownOnce
	s.server, s.shutdownOnce = nil, nil
	s.listener = nil
	s.mu.Unlock()
	if server != nil {
		s.shutdown(server, once)
	}
}

// shutdown stops accepting connections and gives in-flight streams a short
// grace period before closing them outright.
func (s *apiServer) shutdown(server *http.Server, once *sync.Once) {
	once.Do(func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("graceful shutdown timed out; closing active streams", logging.Error(err))
			_ = server.Close()
		}
	})
}

func (s *apiServer) addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}
