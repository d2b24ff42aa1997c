package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"achilles/internal/catalog"
	"achilles/internal/logging"
	"achilles/internal/services"
	"achilles/internal/stream"
)

// handleStreamByID resolves a catalog id to its recorded video path and
// streams it.
func (s *apiServer) handleStreamByID(kind catalog.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			stream.WriteError(w, services.Wrap(services.ErrBadRequest, "api-server", "stream", fmt.Sprintf("invalid %s id %q", kind, raw), err))
			return
		}
		path, found, err := s.daemon.catalog.VideoPath(r.Context(), kind, id)
		if err != nil {
			s.logger.Error("catalog lookup failed", logging.String("kind", string(kind)), logging.Int64("id", id), logging.Error(err))
			stream.WriteError(w, services.Wrap(services.ErrIO, "api-server", "catalog lookup", "", err))
			return
		}
		if !found || path == "" {
			stream.WriteError(w, services.Wrap(services.ErrNotFound, "api-server", "stream", fmt.Sprintf("%s %d has no video", kind, id), nil))
			return
		}
		s.serve(w, r, path)
	}
}

// handleStreamFile serves a caller-supplied path, typically a poster.
func (s *apiServer) handleStreamFile(w http.ResponseWriter, r *http.Request) {
	if s.cacheMaxAge > 0 {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", s.cacheMaxAge))
	}
	s.serve(w, r, r.URL.Query().Get("path"))
}

func (s *apiServer) serve(w http.ResponseWriter, r *http.Request, requested string) {
	logger := logging.WithContext(r.Context(), s.logger)
	file, err := s.daemon.guard.Resolve(requested)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			logging.WarnWithContext(logger, "path rejected outside storage root", "path_forbidden",
				logging.String(logging.FieldPath, requested),
				logging.String("storage_root", s.daemon.guard.Root()),
				logging.String(logging.FieldErrorHint, "catalog paths must point inside paths.storage_root"),
				logging.String(logging.FieldImpact, "request answered with 403"),
			)
		case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrBadRequest):
			logger.Debug("path not served", logging.String(logging.FieldPath, requested), logging.Error(err))
		default:
			logger.Error("path resolution failed", logging.String(logging.FieldPath, requested), logging.Error(err))
		}
		stream.WriteError(w, err)
		return
	}
	result, err := s.daemon.streamer.Serve(w, r, file)
	if err != nil && !result.Aborted {
		logger.Debug("stream rejected", logging.Int("status", result.Status), logging.Error(err))
	}
}
