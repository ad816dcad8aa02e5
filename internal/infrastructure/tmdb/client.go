// Package tmdb is a thin client for The Movie Database v3 API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"
	defaultTimeout      = 10 * time.Second
	releaseDateLayout   = "2006-01-02"
)

type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	IncludeAdult bool
	Timeout      time.Duration
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = DefaultImageBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.ImageBaseURL = strings.TrimRight(cfg.ImageBaseURL, "/")
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type searchResponse struct {
	Results []movieResult `json:"results"`
}

type movieResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	VoteAverage  float64 `json:"vote_average"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Runtime      int     `json:"runtime"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

func (c *Client) toMetadata(r movieResult) domain.MovieMetadata {
	date, _ := time.Parse(releaseDateLayout, r.ReleaseDate)
	genres := make([]string, 0, len(r.Genres))
	for _, g := range r.Genres {
		genres = append(genres, g.Name)
	}
	return domain.MovieMetadata{
		TMDBID:         r.ID,
		Title:          r.Title,
		Overview:       r.Overview,
		ReleaseDate:    date,
		RuntimeMinutes: r.Runtime,
		Rating:         r.VoteAverage,
		Genres:         genres,
		PosterURL:      c.imageURL("w500", r.PosterPath),
		BackdropURL:    c.imageURL("original", r.BackdropPath),
	}
}

func (c *Client) imageURL(size, path string) string {
	if path == "" {
		return ""
	}
	return c.cfg.ImageBaseURL + "/" + size + path
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values, out any) error {
	q.Set("api_key", c.cfg.APIKey)
	if c.cfg.Language != "" {
		q.Set("language", c.cfg.Language)
	}
	u := c.cfg.BaseURL + endpoint + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb %s: %w: %v", endpoint, domain.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrMovieNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("tmdb %s: %w: status %d", endpoint, domain.ErrDependencyUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("tmdb %s: decode: %w", endpoint, err)
	}
	return nil
}

// Search looks up movies by title, optionally narrowed to a release year.
func (c *Client) Search(ctx context.Context, query string, year int) ([]domain.MovieMetadata, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", strconv.FormatBool(c.cfg.IncludeAdult))
	if year > 0 {
		q.Set("primary_release_year", strconv.Itoa(year))
	}

	var res searchResponse
	if err := c.get(ctx, "/search/movie", q, &res); err != nil {
		return nil, err
	}
	out := make([]domain.MovieMetadata, 0, len(res.Results))
	for _, r := range res.Results {
		out = append(out, c.toMetadata(r))
	}
	return out, nil
}

// Details fetches a single movie including genres and runtime.
func (c *Client) Details(ctx context.Context, tmdbID int) (*domain.MovieMetadata, error) {
	var r movieResult
	if err := c.get(ctx, "/movie/"+strconv.Itoa(tmdbID), url.Values{}, &r); err != nil {
		return nil, err
	}
	md := c.toMetadata(r)
	return &md, nil
}
