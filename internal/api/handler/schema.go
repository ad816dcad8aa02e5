package handler

import (
	"time"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

type errorResponse struct {
	Error string `json:"error"`
}

// --- auth ---

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name"     validate:"required,max=80"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type accountEnvelope struct {
	User *domain.Account `json:"user"`
}

type sessionResponse struct {
	Token     string               `json:"token,omitempty"`
	ExpiresAt time.Time            `json:"expires_at"`
	Stale     bool                 `json:"stale,omitempty"`
	Claim     *domain.SessionClaim `json:"session"`
	User      *domain.Account      `json:"user,omitempty"`
}

func toSessionResponse(s *domain.Session, account *domain.Account) sessionResponse {
	return sessionResponse{
		Token:     s.Token,
		ExpiresAt: s.Claim.ExpiresAt,
		Stale:     s.Stale,
		Claim:     s.Claim,
		User:      account,
	}
}

// --- accounts ---

type updateProfileRequest struct {
	Name string `json:"name" validate:"required,max=80"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin subscriber guest"`
}

type setActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type watchlistResponse struct {
	Watchlist []string `json:"watchlist"`
	// Session tokens embed the watchlist; refresh to see the change there.
	RefreshRequired bool `json:"refresh_required"`
}

type pageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type accountListResponse struct {
	Items []*domain.Account `json:"items"`
	pageMeta
}

func toAccountList(r *ports.ListAccountsResult) accountListResponse {
	items := r.Items
	if items == nil {
		items = []*domain.Account{}
	}
	return accountListResponse{
		Items:    items,
		pageMeta: pageMeta{Page: r.Page, Limit: r.Limit, Total: r.Total, TotalPages: r.TotalPages},
	}
}

// --- catalog ---

type createMovieRequest struct {
	Title          string   `json:"title"           validate:"required,max=200"`
	Overview       string   `json:"overview"        validate:"max=4000"`
	Genres         []string `json:"genres"          validate:"max=10,dive,required,max=40"`
	ReleaseYear    int      `json:"release_year"    validate:"omitempty,gte=1888,lte=2100"`
	RuntimeMinutes int      `json:"runtime_minutes" validate:"gte=0,lte=1000"`
	PosterURL      string   `json:"poster_url"      validate:"omitempty,url"`
	BackdropURL    string   `json:"backdrop_url"    validate:"omitempty,url"`
	VideoKey       string   `json:"video_key"       validate:"max=200"`
	Published      bool     `json:"published"`
}

func (r createMovieRequest) toInput() ports.CreateMovieInput {
	return ports.CreateMovieInput{
		Title:          r.Title,
		Overview:       r.Overview,
		Genres:         r.Genres,
		ReleaseYear:    r.ReleaseYear,
		RuntimeMinutes: r.RuntimeMinutes,
		PosterURL:      r.PosterURL,
		BackdropURL:    r.BackdropURL,
		VideoKey:       r.VideoKey,
		Published:      r.Published,
	}
}

// updateMovieRequest is a partial update; absent fields keep their value.
type updateMovieRequest struct {
	Title          *string  `json:"title"           validate:"omitempty,max=200"`
	Overview       *string  `json:"overview"        validate:"omitempty,max=4000"`
	Genres         []string `json:"genres"          validate:"omitempty,max=10,dive,required,max=40"`
	ReleaseYear    *int     `json:"release_year"    validate:"omitempty,gte=1888,lte=2100"`
	RuntimeMinutes *int     `json:"runtime_minutes" validate:"omitempty,gte=0,lte=1000"`
	Rating         *float64 `json:"rating"          validate:"omitempty,gte=0,lte=10"`
	PosterURL      *string  `json:"poster_url"      validate:"omitempty,url"`
	BackdropURL    *string  `json:"backdrop_url"    validate:"omitempty,url"`
	VideoKey       *string  `json:"video_key"       validate:"omitempty,max=200"`
	Published      *bool    `json:"published"`
}

func (r updateMovieRequest) toInput() ports.UpdateMovieInput {
	return ports.UpdateMovieInput{
		Title:          r.Title,
		Overview:       r.Overview,
		Genres:         r.Genres,
		ReleaseYear:    r.ReleaseYear,
		RuntimeMinutes: r.RuntimeMinutes,
		Rating:         r.Rating,
		PosterURL:      r.PosterURL,
		BackdropURL:    r.BackdropURL,
		VideoKey:       r.VideoKey,
		Published:      r.Published,
	}
}

type movieListResponse struct {
	Items []*domain.Movie `json:"items"`
	pageMeta
}

func toMovieList(r *ports.ListMoviesResult) movieListResponse {
	items := r.Items
	if items == nil {
		items = []*domain.Movie{}
	}
	return movieListResponse{
		Items:    items,
		pageMeta: pageMeta{Page: r.Page, Limit: r.Limit, Total: r.Total, TotalPages: r.TotalPages},
	}
}

type importMovieRequest struct {
	TMDBID  int  `json:"tmdb_id" validate:"required,gt=0"`
	Publish bool `json:"publish"`
}

type importMovieResponse struct {
	Movie   *domain.Movie `json:"movie"`
	Existed bool          `json:"existed"`
}

// --- genres ---

type genreRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

type genreListResponse struct {
	Genres []*domain.Genre `json:"genres"`
}

// --- billing ---

type acceptedResponse struct {
	Message string `json:"message"`
	EventID string `json:"event_id,omitempty"`
}

type plansResponse struct {
	Plans []domain.Plan `json:"plans"`
}

// subscriptionResponse carries a null subscription for accounts that never paid.
type subscriptionResponse struct {
	Subscription *domain.Subscription `json:"subscription"`
}
