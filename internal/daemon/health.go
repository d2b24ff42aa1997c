package daemon

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"achilles/internal/logging"
	"achilles/internal/stream"
)

// HealthReport is the JSON body served by GET /health.
type HealthReport struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Uptime    HealthUptime   `json:"uptime"`
	Database  HealthDatabase `json:"database"`
	Memory    HealthMemory   `json:"memory"`
	Streams   stream.Stats   `json:"streams"`
	Server    HealthServer   `json:"server"`
}

type HealthUptime struct {
	Formatted string `json:"formatted"`
	Seconds   int64  `json:"seconds"`
}

type HealthDatabase struct {
	Connected    bool   `json:"connected"`
	Error        string `json:"error,omitempty"`
	Movies       int    `json:"movies"`
	Shows        int    `json:"shows"`
	Episodes     int    `json:"episodes"`
	Parts        int    `json:"parts"`
	TotalContent int    `json:"total_content"`
}

type HealthMemory struct {
	HeapAllocMB uint64 `json:"heap_alloc_mb"`
	SysMB       uint64 `json:"sys_mb"`
	Goroutines  int    `json:"goroutines"`
}

type HealthServer struct {
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	PID       int    `json:"pid"`
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	status := s.daemon.Status()
	uptime := time.Duration(0)
	if !status.StartedAt.IsZero() {
		uptime = now.Sub(status.StartedAt)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := HealthReport{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339),
		Uptime:    HealthUptime{Formatted: formatUptime(uptime), Seconds: int64(uptime / time.Second)},
		Memory: HealthMemory{
			HeapAllocMB: mem.HeapAlloc >> 20,
			SysMB:       mem.Sys >> 20,
			Goroutines:  runtime.NumGoroutine(),
		},
		Streams: status.Streams,
		Server: HealthServer{
			GoVersion: runtime.Version(),
			Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			PID:       os.Getpid(),
		},
	}

	code := http.StatusOK
	counts, err := s.daemon.catalog.Counts(r.Context())
	if err != nil {
		s.logger.Error("health check catalog query failed", logging.Error(err))
		resp.Status = "unhealthy"
		resp.Database.Error = "catalog unavailable"
		code = http.StatusServiceUnavailable
	} else {
		resp.Database = HealthDatabase{
			Connected:    true,
			Movies:       counts.Movies,
			Shows:        counts.Shows,
			Episodes:     counts.Episodes,
			Parts:        counts.Parts,
			TotalContent: counts.Movies + counts.Shows,
		}
	}
	w.Header().Set("Cache-Control", "no-store")
	s.writeJSON(w, code, resp)
}

// formatUptime renders d as "1d 2h 3m 4s".
func formatUptime(d time.Duration) string {
	total := int64(d / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
}
