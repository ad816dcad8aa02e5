package domain

import "time"

// SessionClaim is the self-contained, signed description of a logged-in account.
// It is immutable once issued; changes to the account only show up on re-issue.
type SessionClaim struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Role      Role      `json:"role"`
	Watchlist []string  `json:"watchlist"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the claim is no longer valid at now.
func (c *SessionClaim) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Session pairs a signed token with the claim it encodes.
type Session struct {
	Token string
	Claim *SessionClaim
	// Stale is set when a refresh could not reach the account store and the
	// previous claim was returned unchanged.
	Stale bool
}
