package catalog

import (
	"fmt"
	"strings"
)

// Kind names the table a stream route resolves an id against.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
	KindPart    Kind = "part"
)

// ParseKind validates a route or CLI kind string.
func ParseKind(value string) (Kind, error) {
	switch kind := Kind(strings.ToLower(strings.TrimSpace(value))); kind {
	case KindMovie, KindEpisode, KindPart:
		return kind, nil
	default:
		return "", fmt.Errorf("unknown catalog kind %q", value)
	}
}

// MediaType distinguishes rows of the movies table.
type MediaType string

const (
	MediaMovie MediaType = "MOVIE"
	MediaShow  MediaType = "SHOW"
)

// Movie is a movies table row. Shows use the same shape with Type MediaShow
// and usually no video path.
type Movie struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Type       MediaType `json:"type"`
	Year       int       `json:"year,omitempty"`
	PosterPath string    `json:"poster_path,omitempty"`
	VideoPath  string    `json:"video_path,omitempty"`
	DateAdded  string    `json:"date_added"`
}

// Episode belongs to a show.
type Episode struct {
	ID            int64  `json:"id"`
	ShowID        int64  `json:"show_id"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Title         string `json:"title"`
	PosterPath    string `json:"poster_path,omitempty"`
	VideoPath     string `json:"video_path"`
}

// Part is one file of a multi-part movie.
type Part struct {
	ID         int64  `json:"id"`
	MovieID    int64  `json:"movie_id"`
	PartNumber int    `json:"part_number"`
	Title      string `json:"title"`
	VideoPath  string `json:"video_path"`
}

// Counts summarizes catalog size for health reporting.
type Counts struct {
	Movies   int `json:"movies"`
	Shows    int `json:"shows"`
	Episodes int `json:"episodes"`
	Parts    int `json:"parts"`
}

// Entry is a flattened row used for listings.
type Entry struct {
	Kind      Kind   `json:"kind"`
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Detail    string `json:"detail,omitempty"`
	VideoPath string `json:"video_path,omitempty"`
}
