package service

import (
	"time"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/pkg/metrics"
)

// PolicyGate decides whether a session claim meets a route requirement.
// It only looks at the claim, never at the account store.
type PolicyGate struct {
	now func() time.Time
}

func NewPolicyGate() *PolicyGate {
	return &PolicyGate{now: time.Now}
}

// Decide maps (claim, requirement) to allow, redirect-to-login or deny.
// A nil or expired claim is anonymous.
func (g *PolicyGate) Decide(claim *domain.SessionClaim, req domain.Requirement) domain.Decision {
	d := decide(claim, req, g.now())
	metrics.GateDecisionsTotal.WithLabelValues(string(req), string(d)).Inc()
	return d
}

func decide(claim *domain.SessionClaim, req domain.Requirement, now time.Time) domain.Decision {
	if req == domain.RequirePublic {
		return domain.DecisionAllow
	}
	if claim == nil || claim.Expired(now) {
		return domain.DecisionRedirect
	}
	if claim.Role.Satisfies(req) {
		return domain.DecisionAllow
	}
	return domain.DecisionDeny
}
