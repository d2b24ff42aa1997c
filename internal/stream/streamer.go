package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"achilles/internal/logging"
	"achilles/internal/pathguard"
	"achilles/internal/services"
)

const (
	component = "stream"

	// DefaultChunkSize is the copy buffer used when Options.ChunkSize is unset.
	DefaultChunkSize = 256 * 1024
)

// Options configures a Streamer.
type Options struct {
	// ChunkSize bounds each read/write cycle and therefore per-request memory.
	ChunkSize int
	// BytesPerSecond caps each individual transfer; zero disables pacing.
	BytesPerSecond int64
	// WriteIdleTimeout is the deadline applied to every chunk write; zero
	// disables it.
	WriteIdleTimeout time.Duration
	Logger           *slog.Logger
}

// Result summarizes what Serve put on the wire.
type Result struct {
	Status    int
	Partial   bool
	Range     ByteRange
	BytesSent int64
	Aborted   bool
}

// Stats is a snapshot of streamer counters.
type Stats struct {
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Aborted   int64 `json:"aborted"`
	Rejected  int64 `json:"rejected"`
	BytesSent int64 `json:"bytes_sent"`
}

// Streamer writes files to HTTP responses. A single Streamer is shared by all
// handlers; per-request state lives on the stack of Serve.
type Streamer struct {
	chunkSize   int
	bytesPerSec int64
	idleTimeout time.Duration
	logger      *slog.Logger
	buffers     sync.Pool

	active    atomic.Int64
	completed atomic.Int64
	aborted   atomic.Int64
	rejected  atomic.Int64
	bytesSent atomic.Int64
}

// New constructs a Streamer.
func New(opts Options) *Streamer {
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	s := &Streamer{
		chunkSize:   chunk,
		bytesPerSec: opts.BytesPerSecond,
		idleTimeout: opts.WriteIdleTimeout,
		logger:      logging.NewComponentLogger(opts.Logger, component),
	}
	s.buffers.New = func() any {
		buf := make([]byte, s.chunkSize)
		return &buf
	}
	return s
}

// Stats returns current counters.
func (s *Streamer) Stats() Stats {
	return Stats{
		Active:    s.active.Load(),
		Completed: s.completed.Load(),
		Aborted:   s.aborted.Load(),
		Rejected:  s.rejected.Load(),
		BytesSent: s.bytesSent.Load(),
	}
}

// Serve writes file to w honoring the request's Range header. It always
// produces a response: failures before headers become plain-text errors,
// failures after headers truncate the body. The returned error is for
// logging; Result.Status is what the client saw.
func (s *Streamer) Serve(w http.ResponseWriter, r *http.Request, file pathguard.ResolvedFile) (Result, error) {
	s.active.Add(1)
	defer s.active.Add(-1)

	logger := logging.WithContext(r.Context(), s.logger).With(logging.String(logging.FieldPath, file.AbsolutePath))

	f, err := os.Open(file.AbsolutePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = services.Wrap(services.ErrNotFound, component, "open", file.AbsolutePath, err)
		} else {
			err = services.Wrap(services.ErrIO, component, "open", file.AbsolutePath, err)
		}
		return s.reject(w, err), err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		err = services.Wrap(services.ErrIO, component, "stat", file.AbsolutePath, err)
		return s.reject(w, err), err
	}
	if !info.Mode().IsRegular() {
		err = services.Wrap(services.ErrNotFound, component, "stat", "not a regular file", nil)
		return s.reject(w, err), err
	}
	// The open handle is authoritative; the file may have changed since it
	// was resolved.
	size := info.Size()

	result := Result{Status: http.StatusOK, Range: ByteRange{Start: 0, End: size - 1}}
	if header := r.Header.Get("Range"); header != "" {
		br, err := ParseRange(header, size)
		switch {
		case err == nil:
			result.Status = http.StatusPartialContent
			result.Partial = true
			result.Range = br
		case errors.Is(err, services.ErrRangeNotSatisfiable):
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			return s.reject(w, err), err
		default:
			logger.Debug("ignoring range header", logging.String("range", header), logging.Error(err))
		}
	}

	length := int64(0)
	if size > 0 {
		length = result.Range.Length()
	}
	if length > 0 {
		if _, err := f.Seek(result.Range.Start, io.SeekStart); err != nil {
			err = services.Wrap(services.ErrIO, component, "seek", file.AbsolutePath, err)
			return s.reject(w, err), err
		}
	}

	h := w.Header()
	h.Set("Content-Type", file.MIMEType)
	h.Set("Accept-Ranges", "bytes")
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	h.Set("X-Content-Type-Options", "nosniff")
	if result.Partial {
		h.Set("Content-Range", result.Range.ContentRange(size))
	}
	w.WriteHeader(result.Status)

	if r.Method == http.MethodHead || length == 0 {
		s.completed.Add(1)
		return result, nil
	}

	sent, err := s.copy(r.Context(), w, io.LimitReader(f, length), length)
	result.BytesSent = sent
	s.bytesSent.Add(sent)
	if err != nil {
		result.Aborted = true
		s.aborted.Add(1)
		logging.WarnWithContext(logger, "stream aborted", "stream_aborted",
			logging.Int("status", result.Status),
			logging.Int64("bytes_sent", sent),
			logging.Int64("bytes_expected", length),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "client may have disconnected; check disk health if this repeats"),
			logging.String(logging.FieldImpact, "client received a truncated body"),
		)
		return result, err
	}
	s.completed.Add(1)
	return result, nil
}

// copy moves exactly want bytes from src to w one chunk at a time.
func (s *Streamer) copy(ctx context.Context, w http.ResponseWriter, src io.Reader, want int64) (int64, error) {
	bufp := s.buffers.Get().(*[]byte)
	defer s.buffers.Put(bufp)
	buf := *bufp

	var limiter *rate.Limiter
	if s.bytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.bytesPerSec), len(buf))
	}
	rc := http.NewResponseController(w)
	deadlines := s.idleTimeout > 0
	if deadlines {
		defer func() { _ = rc.SetWriteDeadline(time.Time{}) }()
	}

	var sent int64
	for sent < want {
		if err := ctx.Err(); err != nil {
			return sent, services.Wrap(services.ErrIO, component, "copy", "request canceled", err)
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					return sent, services.Wrap(services.ErrIO, component, "copy", "rate limiter wait", err)
				}
			}
			if deadlines {
				if err := rc.SetWriteDeadline(time.Now().Add(s.idleTimeout)); err != nil && !errors.Is(err, http.ErrNotSupported) {
					return sent, services.Wrap(services.ErrIO, component, "copy", "set write deadline", err)
				}
			}
			written, err := w.Write(buf[:n])
			sent += int64(written)
			if err != nil {
				return sent, services.Wrap(services.ErrIO, component, "copy", "write", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return sent, services.Wrap(services.ErrIO, component, "copy", "read", readErr)
		}
	}
	if sent < want {
		return sent, services.Wrap(services.ErrIO, component, "copy",
			fmt.Sprintf("file ended after %d of %d bytes", sent, want), io.ErrUnexpectedEOF)
	}
	return sent, nil
}

func (s *Streamer) reject(w http.ResponseWriter, err error) Result {
	s.rejected.Add(1)
	status := services.HTTPStatus(err)
	WriteError(w, err)
	return Result{Status: status}
}

// WriteError answers with the status and short plain-text body for err.
// Caller-set caching headers are dropped so errors are never cached.
func WriteError(w http.ResponseWriter, err error) {
	h := w.Header()
	h.Del("Cache-Control")
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	status := services.HTTPStatus(err)
	if status == http.StatusRequestedRangeNotSatisfiable {
		h.Set("Content-Length", "0")
		w.WriteHeader(status)
		return
	}
	body := services.PublicMessage(err)
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
