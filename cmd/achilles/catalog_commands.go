package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"achilles/internal/catalog"
	"achilles/internal/config"
	"achilles/internal/daemon"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and edit the media catalog",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog row",
	}
	addCmd.AddCommand(newCatalogAddMovieCommand(ctx, catalog.MediaMovie))
	addCmd.AddCommand(newCatalogAddMovieCommand(ctx, catalog.MediaShow))
	addCmd.AddCommand(newCatalogAddEpisodeCommand(ctx))
	addCmd.AddCommand(newCatalogAddPartCommand(ctx))

	catalogCmd.AddCommand(addCmd)
	catalogCmd.AddCommand(newCatalogListCommand(ctx))
	return catalogCmd
}

func newCatalogAddMovieCommand(ctx *commandContext, mediaType catalog.MediaType) *cobra.Command {
	var title, poster, video string
	var year int

	use := "movie"
	if mediaType == catalog.MediaShow {
		use = "show"
	}
	cmd := &cobra.Command{
		Use:   use,
		Short: "Add a " + use,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(cfg *config.Config, store *catalog.Store) error {
				if err := checkStoragePaths(cfg, poster, video); err != nil {
					return err
				}
				movie, err := store.AddMovie(cmd.Context(), catalog.Movie{
					Title:      title,
					Type:       mediaType,
					Year:       year,
					PosterPath: strings.TrimSpace(poster),
					VideoPath:  strings.TrimSpace(video),
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s %d: %s\n", use, movie.ID, movie.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().IntVar(&year, "year", 0, "Release year")
	cmd.Flags().StringVar(&poster, "poster", "", "Poster path inside the storage root")
	cmd.Flags().StringVar(&video, "video", "", "Video path inside the storage root")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newCatalogAddEpisodeCommand(ctx *commandContext) *cobra.Command {
	var showID int64
	var season, episode int
	var title, poster, video string

	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Add an episode to a show",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(cfg *config.Config, store *catalog.Store) error {
				if err := checkStoragePaths(cfg, poster, video); err != nil {
					return err
				}
				ep, err := store.AddEpisode(cmd.Context(), catalog.Episode{
					ShowID:        showID,
					SeasonNumber:  season,
					EpisodeNumber: episode,
					Title:         title,
					PosterPath:    strings.TrimSpace(poster),
					VideoPath:     video,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added episode %d: S%02dE%02d %s\n", ep.ID, ep.SeasonNumber, ep.EpisodeNumber, ep.Title)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&showID, "show", 0, "Parent show id")
	cmd.Flags().IntVar(&season, "season", 0, "Season number")
	cmd.Flags().IntVar(&episode, "episode", 0, "Episode number")
	cmd.Flags().StringVar(&title, "title", "", "Episode title")
	cmd.Flags().StringVar(&poster, "poster", "", "Poster path inside the storage root")
	cmd.Flags().StringVar(&video, "video", "", "Video path inside the storage root")
	_ = cmd.MarkFlagRequired("show")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

func newCatalogAddPartCommand(ctx *commandContext) *cobra.Command {
	var movieID int64
	var number int
	var title, video string

	cmd := &cobra.Command{
		Use:   "part",
		Short: "Add a part to a multi-part movie",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(cfg *config.Config, store *catalog.Store) error {
				if err := checkStoragePaths(cfg, video); err != nil {
					return err
				}
				part, err := store.AddPart(cmd.Context(), catalog.Part{
					MovieID:    movieID,
					PartNumber: number,
					Title:      title,
					VideoPath:  video,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added part %d: movie %d part %d\n", part.ID, part.MovieID, part.PartNumber)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&movieID, "movie", 0, "Parent movie id")
	cmd.Flags().IntVar(&number, "number", 0, "Part number (1-based)")
	cmd.Flags().StringVar(&title, "title", "", "Part title")
	cmd.Flags().StringVar(&video, "video", "", "Video path inside the storage root")
	_ = cmd.MarkFlagRequired("movie")
	_ = cmd.MarkFlagRequired("number")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

func newCatalogListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withCatalog(func(cfg *config.Config, store *catalog.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					if entries == nil {
						entries = []catalog.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Catalog is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						string(e.Kind),
						strconv.FormatInt(e.ID, 10),
						e.Title,
						e.Detail,
						e.VideoPath,
					})
				}
				fmt.Fprintln(out, renderTable([]tableColumn{
					{Header: "Kind"},
					{Header: "ID", Align: alignRight},
					{Header: "Title", MaxWidth: 40},
					{Header: "Detail"},
					{Header: "Video", MaxWidth: 60},
				}, rows))
				return nil
			})
		},
	}
	addJSONFlag(cmd, &jsonOutput)
	return cmd
}

// checkStoragePaths rejects non-empty paths that fall outside the storage
// root. Files need not exist yet.
func checkStoragePaths(cfg *config.Config, paths ...string) error {
	guard, err := daemon.BuildGuard(cfg)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, err := guard.Contains(p); err != nil {
			return fmt.Errorf("path %q is not allowed under storage root %s: %w", p, guard.Root(), err)
		}
	}
	return nil
}
