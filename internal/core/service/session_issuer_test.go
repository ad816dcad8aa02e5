package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/moviestream/streaming-api/internal/core/domain"
)

func fixedIssuer(at time.Time) *JWTSessionIssuer {
	iss := NewSessionIssuer("secret", 24*time.Hour, "moviestream")
	iss.now = func() time.Time { return at }
	return iss
}

var issuerEpoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestSessionIssuer_RoundTrip(t *testing.T) {
	iss := fixedIssuer(issuerEpoch)
	acc := &domain.Account{ID: "a1", Role: domain.RoleSubscriber, Watchlist: []string{"m1", "m2"}}

	s, err := iss.Issue(acc)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !s.Claim.ExpiresAt.Equal(issuerEpoch.Add(24 * time.Hour)) {
		t.Fatalf("unexpected expiry %v", s.Claim.ExpiresAt)
	}

	claim, err := iss.Verify(s.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claim.AccountID != "a1" || claim.Role != domain.RoleSubscriber || claim.ID != s.Claim.ID {
		t.Fatalf("unexpected claim: %+v", claim)
	}
	if len(claim.Watchlist) != 2 || claim.Watchlist[1] != "m2" {
		t.Fatalf("unexpected watchlist: %v", claim.Watchlist)
	}
	if !claim.IssuedAt.Equal(issuerEpoch) || !claim.ExpiresAt.Equal(s.Claim.ExpiresAt) {
		t.Fatalf("times did not round trip: %+v", claim)
	}
}

func TestSessionIssuer_WatchlistIsSnapshot(t *testing.T) {
	iss := fixedIssuer(issuerEpoch)
	acc := &domain.Account{ID: "a1", Role: domain.RoleGuest, Watchlist: []string{"m1"}}

	s, _ := iss.Issue(acc)
	acc.Watchlist[0] = "changed"
	if s.Claim.Watchlist[0] != "m1" {
		t.Fatalf("claim watchlist aliases the account")
	}
}

func TestSessionIssuer_Expired(t *testing.T) {
	iss := fixedIssuer(issuerEpoch)
	s, _ := iss.Issue(&domain.Account{ID: "a1", Role: domain.RoleGuest})

	iss.now = func() time.Time { return issuerEpoch.Add(24 * time.Hour) }
	if _, err := iss.Verify(s.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated at expiry, got %v", err)
	}
}

func TestSessionIssuer_WrongSecret(t *testing.T) {
	s, _ := fixedIssuer(issuerEpoch).Issue(&domain.Account{ID: "a1", Role: domain.RoleGuest})

	other := NewSessionIssuer("other-secret", time.Hour, "moviestream")
	other.now = func() time.Time { return issuerEpoch }
	if _, err := other.Verify(s.Token); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionIssuer_TamperedPayload(t *testing.T) {
	iss := fixedIssuer(issuerEpoch)
	guest, _ := iss.Issue(&domain.Account{ID: "a1", Role: domain.RoleGuest})
	admin, _ := iss.Issue(&domain.Account{ID: "a1", Role: domain.RoleAdmin})

	g := strings.Split(guest.Token, ".")
	a := strings.Split(admin.Token, ".")
	forged := g[0] + "." + a[1] + "." + g[2]

	if _, err := iss.Verify(forged); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for swapped payload, got %v", err)
	}
}

func TestSessionIssuer_RejectsOtherAlgorithms(t *testing.T) {
	iss := fixedIssuer(issuerEpoch)
	claims := sessionClaims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a1",
			Issuer:    "moviestream",
			ExpiresAt: jwt.NewNumericDate(issuerEpoch.Add(time.Hour)),
		},
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Verify(none); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("alg none: expected ErrUnauthenticated, got %v", err)
	}

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Verify(hs384); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("HS384: expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionIssuer_RejectsMalformed(t *testing.T) {
	iss := fixedIssuer(issuerEpoch)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := iss.Verify(tok); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("Verify(%q): expected ErrUnauthenticated, got %v", tok, err)
		}
	}
}

func TestSessionIssuer_RejectsUnknownRole(t *testing.T) {
	iss := fixedIssuer(issuerEpoch)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "a1",
			Issuer:    "moviestream",
			ExpiresAt: jwt.NewNumericDate(issuerEpoch.Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Verify(tok); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionIssuer_IssueRequiresAccount(t *testing.T) {
	if _, err := fixedIssuer(issuerEpoch).Issue(nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
