package domain

import "errors"

var (
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrAccountNotFound          = errors.New("account not found")
	ErrAccountExists            = errors.New("account already exists")
	ErrProviderAssertionInvalid = errors.New("provider assertion invalid")
	ErrUnauthenticated          = errors.New("unauthenticated")
	ErrForbidden                = errors.New("access forbidden")
	ErrDependencyUnavailable    = errors.New("dependency unavailable")
	ErrTooManyAttempts          = errors.New("too many login attempts")
	ErrInvalidInput             = errors.New("invalid input")
	ErrMovieNotFound            = errors.New("movie not found")
	ErrGenreNotFound            = errors.New("genre not found")
	ErrGenreExists              = errors.New("genre already exists")
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrInvalidSignature         = errors.New("invalid webhook signature")
)
