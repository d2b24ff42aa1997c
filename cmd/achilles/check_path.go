package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"achilles/internal/daemon"
	"achilles/internal/services"
)

type pathVerdict struct {
	Requested string `json:"requested"`
	Allowed   bool   `json:"allowed"`
	Status    int    `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Path      string `json:"path,omitempty"`
	MIMEType  string `json:"mime_type,omitempty"`
	Size      int64  `json:"size,omitempty"`
}

func newCheckPathCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check-path <path>",
		Short: "Show how the daemon would resolve a requested file path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			guard, err := daemon.BuildGuard(cfg)
			if err != nil {
				return err
			}

			verdict := pathVerdict{Requested: args[0]}
			file, resolveErr := guard.Resolve(args[0])
			verdict.Status = services.HTTPStatus(resolveErr)
			if resolveErr != nil {
				verdict.Reason = resolveErr.Error()
			} else {
				verdict.Allowed = true
				verdict.Path = file.AbsolutePath
				verdict.MIMEType = file.MIMEType
				verdict.Size = file.SizeBytes
			}

			if jsonOutput {
				if err := writeJSON(cmd, verdict); err != nil {
					return err
				}
			} else {
				p := newStatusPrinter(cmd.OutOrStdout())
				if verdict.Allowed {
					p.line("Verdict", statusOK, fmt.Sprintf("%d allowed", verdict.Status))
					p.line("Path", statusInfo, verdict.Path)
					p.line("Content-Type", statusInfo, verdict.MIMEType)
					p.line("Size", statusInfo, humanize.IBytes(uint64(verdict.Size)))
				} else {
					p.line("Verdict", statusError, fmt.Sprintf("%d %s", verdict.Status, strings.ToLower(services.PublicMessage(resolveErr))))
					p.line("Reason", statusInfo, verdict.Reason)
				}
			}
			if resolveErr != nil {
				return fmt.Errorf("path rejected with status %d", verdict.Status)
			}
			return nil
		},
	}
	addJSONFlag(cmd, &jsonOutput)
	return cmd
}
