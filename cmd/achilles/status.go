package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"achilles/internal/config"
	"achilles/internal/daemon"
	"achilles/internal/preflight"
)

const statusProbeTimeout = 3 * time.Second

type statusReport struct {
	Address   string               `json:"address"`
	Reachable bool                 `json:"reachable"`
	Error     string               `json:"error,omitempty"`
	Health    *daemon.HealthReport `json:"health,omitempty"`
	Preflight []preflight.Result   `json:"preflight"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon health and environment checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := collectStatus(cmd.Context(), cfg)
			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderStatus(cmd, report)
			return nil
		},
	}
	addJSONFlag(cmd, &jsonOutput)
	return cmd
}

func collectStatus(ctx context.Context, cfg *config.Config) statusReport {
	report := statusReport{Address: probeAddress(cfg.Server.Bind)}
	health, err := fetchHealth(ctx, "http://"+report.Address+"/health")
	if err != nil {
		report.Error = err.Error()
	} else {
		report.Reachable = true
		report.Health = health
	}
	// The running daemon owns the port, so only probe it when nothing answered.
	report.Preflight = preflight.RunAll(cfg, report.Reachable)
	return report
}

// probeAddress turns a wildcard bind into something a local client can dial.
func probeAddress(bind string) string {
	host, port, err := net.SplitHostPort(bind)
	if err != nil {
		return bind
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func fetchHealth(ctx context.Context, url string) (*daemon.HealthReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable: %w", err)
	}
	defer resp.Body.Close()

	var health daemon.HealthReport
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response (%s): %w", resp.Status, err)
	}
	return &health, nil
}

func renderStatus(cmd *cobra.Command, report statusReport) {
	out := cmd.OutOrStdout()
	p := newStatusPrinter(out)

	p.section("Daemon")
	if !report.Reachable {
		p.line("Server", statusError, "not running at "+report.Address)
	} else {
		h := report.Health
		p.line("Server", passFail(h.Status == "healthy"), fmt.Sprintf("%s at %s", h.Status, report.Address))
		p.line("Uptime", statusInfo, h.Uptime.Formatted)
		p.line("Runtime", statusInfo, fmt.Sprintf("%s %s pid %d", h.Server.GoVersion, h.Server.Platform, h.Server.PID))
		p.line("Memory", statusInfo, fmt.Sprintf("%d MB heap, %d goroutines", h.Memory.HeapAllocMB, h.Memory.Goroutines))
		if h.Database.Connected {
			p.line("Catalog", statusOK, fmt.Sprintf("%d titles", h.Database.TotalContent))
		} else {
			p.line("Catalog", statusError, h.Database.Error)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			rightAligned("Movies", "Shows", "Episodes", "Parts"),
			[][]string{{itoa(h.Database.Movies), itoa(h.Database.Shows), itoa(h.Database.Episodes), itoa(h.Database.Parts)}},
		))
		s := h.Streams
		fmt.Fprintln(out, renderTable(
			rightAligned("Active", "Completed", "Aborted", "Rejected", "Sent"),
			[][]string{{
				strconv.FormatInt(s.Active, 10),
				strconv.FormatInt(s.Completed, 10),
				strconv.FormatInt(s.Aborted, 10),
				strconv.FormatInt(s.Rejected, 10),
				humanize.IBytes(uint64(max(s.BytesSent, 0))),
			}},
		))
	}

	fmt.Fprintln(out)
	p.section("Environment")
	for _, result := range report.Preflight {
		p.line(result.Name, passFail(result.Passed), result.Detail)
	}
}

func rightAligned(headers ...string) []tableColumn {
	columns := make([]tableColumn, len(headers))
	for i, h := range headers {
		columns[i] = tableColumn{Header: h, Align: alignRight}
	}
	return columns
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
