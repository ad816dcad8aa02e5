package domain

import (
	"regexp"
	"strings"
	"time"
)

// Movie is a catalog entry.
type Movie struct {
	ID             string    `json:"id" bson:"_id,omitempty"`
	Title          string    `json:"title" bson:"title"`
	Slug           string    `json:"slug" bson:"slug"`
	Overview       string    `json:"overview" bson:"overview"`
	Genres         []string  `json:"genres" bson:"genres"`
	ReleaseYear    int       `json:"release_year,omitempty" bson:"release_year,omitempty"`
	RuntimeMinutes int       `json:"runtime_minutes,omitempty" bson:"runtime_minutes,omitempty"`
	Rating         float64   `json:"rating" bson:"rating"`
	PosterURL      string    `json:"poster_url,omitempty" bson:"poster_url,omitempty"`
	BackdropURL    string    `json:"backdrop_url,omitempty" bson:"backdrop_url,omitempty"`
	VideoKey       string    `json:"video_key,omitempty" bson:"video_key,omitempty"`
	TMDBID         int       `json:"tmdb_id,omitempty" bson:"tmdb_id,omitempty"`
	Published      bool      `json:"published" bson:"published"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a title into a lowercase, dash separated slug.
func Slugify(title string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// MovieMetadata is catalog enrichment fetched from the metadata provider.
type MovieMetadata struct {
	TMDBID         int       `json:"tmdb_id"`
	Title          string    `json:"title"`
	Overview       string    `json:"overview"`
	ReleaseDate    time.Time `json:"release_date"`
	RuntimeMinutes int       `json:"runtime_minutes,omitempty"`
	Rating         float64   `json:"rating"`
	Genres         []string  `json:"genres"`
	PosterURL      string    `json:"poster_url,omitempty"`
	BackdropURL    string    `json:"backdrop_url,omitempty"`
}
