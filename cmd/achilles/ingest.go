package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"achilles/internal/fileutil"
)

type ingestResult struct {
	Source string `json:"source"`
	Stored string `json:"stored"`
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var poster bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Copy a media file into the storage root",
		Long: "Copy a media file into the storage root under a unique name.\n" +
			"Videos go to videos/ and posters (--poster) to posters/. The printed\n" +
			"relative path is what catalog rows should reference.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src := strings.TrimSpace(args[0])
			info, err := os.Stat(src)
			if err != nil {
				return fmt.Errorf("inspect %q: %w", src, err)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("%s is not a regular file", src)
			}

			destDir := cfg.VideosDir()
			if poster {
				destDir = cfg.PostersDir()
			}
			stored := fileutil.UniqueStoredName(time.Now(), filepath.Base(src))
			dst := filepath.Join(destDir, stored)
			written, err := fileutil.CopyFileVerified(src, dst)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", src, err)
			}

			rel, err := filepath.Rel(cfg.Paths.StorageRoot, dst)
			if err != nil {
				rel = dst
			}
			result := ingestResult{Source: src, Stored: stored, Path: filepath.ToSlash(rel), Bytes: written}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s (%s) as %s\n", filepath.Base(src), humanize.IBytes(uint64(written)), result.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&poster, "poster", false, "Store the file as a poster image")
	addJSONFlag(cmd, &jsonOutput)
	return cmd
}
