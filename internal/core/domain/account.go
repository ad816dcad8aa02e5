package domain

import (
	"slices"
	"time"
)

// Role is the authorization level carried by an account and its session claims.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSubscriber Role = "subscriber"
	RoleGuest      Role = "guest"
)

// ProviderCredentials marks accounts created through email/password registration.
const ProviderCredentials = "credentials"

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSubscriber, RoleGuest:
		return true
	}
	return false
}

// Account models a registered viewer or administrator.
type Account struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	Watchlist    []string   `json:"watchlist"`
	Provider     string     `json:"provider"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// HasPassword reports whether the account can log in with local credentials.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// WatchlistSnapshot returns a copy of the watchlist safe to embed in a claim.
func (a *Account) WatchlistSnapshot() []string {
	if len(a.Watchlist) == 0 {
		return []string{}
	}
	return slices.Clone(a.Watchlist)
}

// DeviceInfo describes the client a login came from.
type DeviceInfo struct {
	UserAgent string
	IP        string
}

// Device is an audit record of a client that has logged into an account.
type Device struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	UserAgent   string    `json:"user_agent"`
	IP          string    `json:"ip"`
	FirstSeenAt time.Time `json:"first_seen_at"`
	LastSeenAt  time.Time `json:"last_seen_at"`
}

// ProviderAssertion is the identity an external provider vouched for.
// Claims carries the raw provider payload; it is never used for authorization.
type ProviderAssertion struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Claims        map[string]any
}
