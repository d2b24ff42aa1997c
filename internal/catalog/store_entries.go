package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"achilles/internal/services"
)

const component = "catalog"

// AddMovie inserts a movie or show row and returns it with its assigned id.
func (s *Store) AddMovie(ctx context.Context, m Movie) (*Movie, error) {
	m.Title = strings.TrimSpace(m.Title)
	if m.Title == "" {
		return nil, invalid("add movie", "title is required")
	}
	if m.Type == "" {
		m.Type = MediaMovie
	}
	m.Type = MediaType(strings.ToUpper(string(m.Type)))
	if m.Type != MediaMovie && m.Type != MediaShow {
		return nil, invalid("add movie", fmt.Sprintf("type must be MOVIE or SHOW, got %q", m.Type))
	}
	m.DateAdded = time.Now().UTC().Format(time.RFC3339)

	res, err := s.execWithRetry(ctx,
		`INSERT INTO movies (title, type, year, poster_path, video_path, date_added)
         VALUES (?, ?, ?, ?, ?, ?)`,
		m.Title, string(m.Type), nullableInt(m.Year), nullableString(m.PosterPath), nullableString(m.VideoPath), m.DateAdded,
	)
	if err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &m, nil
}

// AddEpisode inserts an episode under an existing show.
func (s *Store) AddEpisode(ctx context.Context, e Episode) (*Episode, error) {
	e.Title = strings.TrimSpace(e.Title)
	e.VideoPath = strings.TrimSpace(e.VideoPath)
	switch {
	case e.Title == "":
		return nil, invalid("add episode", "title is required")
	case e.VideoPath == "":
		return nil, invalid("add episode", "video path is required")
	case e.SeasonNumber < 0 || e.EpisodeNumber < 0:
		return nil, invalid("add episode", "season and episode numbers must not be negative")
	}
	parent, err := s.mediaType(ctx, e.ShowID)
	if err != nil {
		return nil, err
	}
	if parent != MediaShow {
		return nil, invalid("add episode", fmt.Sprintf("movie %d is not a show", e.ShowID))
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO episodes (show_id, season_number, episode_number, title, poster_path, video_path)
         VALUES (?, ?, ?, ?, ?, ?)`,
		e.ShowID, e.SeasonNumber, e.EpisodeNumber, e.Title, nullableString(e.PosterPath), e.VideoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &e, nil
}

// AddPart inserts one part of a multi-part movie.
func (s *Store) AddPart(ctx context.Context, p Part) (*Part, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.VideoPath = strings.TrimSpace(p.VideoPath)
	switch {
	case p.Title == "":
		return nil, invalid("add part", "title is required")
	case p.VideoPath == "":
		return nil, invalid("add part", "video path is required")
	case p.PartNumber <= 0:
		return nil, invalid("add part", "part number must be positive")
	}
	if _, err := s.mediaType(ctx, p.MovieID); err != nil {
		return nil, err
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO movie_parts (movie_id, part_number, title, video_path) VALUES (?, ?, ?, ?)`,
		p.MovieID, p.PartNumber, p.Title, p.VideoPath,
	)
	if err != nil {
		return nil, fmt.Errorf("insert part: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &p, nil
}

// VideoPath returns the recorded video path for kind/id. found reports
// whether the row exists; a found row may still have no path recorded, in
// which case path is empty.
func (s *Store) VideoPath(ctx context.Context, kind Kind, id int64) (path string, found bool, err error) {
	var query string
	switch kind {
	case KindMovie:
		query = "SELECT video_path FROM movies WHERE id = ?"
	case KindEpisode:
		query = "SELECT video_path FROM episodes WHERE id = ?"
	case KindPart:
		query = "SELECT video_path FROM movie_parts WHERE id = ?"
	default:
		return "", false, invalid("video path", fmt.Sprintf("unknown kind %q", kind))
	}

	var value sql.NullString
	err = s.queryRowWithRetry(ctx, func(row *sql.Row) error { return row.Scan(&value) }, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s %d: %w", kind, id, err)
	}
	return strings.TrimSpace(value.String), true, nil
}

// Counts returns row totals per table.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error {
		return row.Scan(&c.Movies, &c.Shows, &c.Episodes, &c.Parts)
	}, `SELECT
            (SELECT COUNT(1) FROM movies WHERE type = 'MOVIE'),
            (SELECT COUNT(1) FROM movies WHERE type = 'SHOW'),
            (SELECT COUNT(1) FROM episodes),
            (SELECT COUNT(1) FROM movie_parts)`)
	if err != nil {
		return Counts{}, fmt.Errorf("count catalog rows: %w", err)
	}
	return c, nil
}

// List returns every movie, show, episode, and part ordered for display:
// each title followed by its parts or episodes.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	var entries []Entry
	err := retryOnBusy(ctx, func() error {
		entries = entries[:0]
		rows, err := s.db.QueryContext(ctx, `
            SELECT 'movie', m.id, m.title, m.type || COALESCE(' ' || m.year, ''), COALESCE(m.video_path, ''),
                   m.id, 0, 0, 0
              FROM movies m
            UNION ALL
            SELECT 'episode', e.id, e.title, printf('S%02dE%02d', e.season_number, e.episode_number), e.video_path,
                   e.show_id, 1, e.season_number, e.episode_number
              FROM episodes e
            UNION ALL
            SELECT 'part', p.id, p.title, printf('Part %d', p.part_number), p.video_path,
                   p.movie_id, 1, 0, p.part_number
              FROM movie_parts p
            ORDER BY 6, 7, 8, 9, 2`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				e                          Entry
				parent, rank, major, minor int64
			)
			if err := rows.Scan(&e.Kind, &e.ID, &e.Title, &e.Detail, &e.VideoPath, &parent, &rank, &major, &minor); err != nil {
				return err
			}
			entries = append(entries, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return entries, nil
}

func (s *Store) mediaType(ctx context.Context, movieID int64) (MediaType, error) {
	var value string
	err := s.queryRowWithRetry(ctx, func(row *sql.Row) error { return row.Scan(&value) },
		"SELECT type FROM movies WHERE id = ?", movieID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", services.Wrap(services.ErrNotFound, component, "lookup parent", fmt.Sprintf("movie %d does not exist", movieID), nil)
	}
	if err != nil {
		return "", fmt.Errorf("lookup movie %d: %w", movieID, err)
	}
	return MediaType(value), nil
}

func invalid(operation, message string) error {
	return services.Wrap(services.ErrBadRequest, component, operation, message, nil)
}
