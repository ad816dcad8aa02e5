package domain

import "fmt"

// Requirement is the access level a route declares.
type Requirement string

const (
	RequirePublic        Requirement = "public"
	RequireAuthenticated Requirement = "authenticated"
	RequireSubscriber    Requirement = "role:subscriber"
	RequireAdmin         Requirement = "role:admin"
)

// ParseRequirement validates a textual requirement from route configuration.
func ParseRequirement(s string) (Requirement, error) {
	switch r := Requirement(s); r {
	case RequirePublic, RequireAuthenticated, RequireSubscriber, RequireAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown route requirement %q", ErrInvalidInput, s)
}

// Decision is the outcome of the policy gate.
type Decision string

const (
	DecisionAllow    Decision = "allow"
	DecisionRedirect Decision = "redirect"
	DecisionDeny     Decision = "deny"
)

// satisfies lists, per role, the requirements that role meets beyond public.
var satisfies = map[Role][]Requirement{
	RoleAdmin:      {RequireAuthenticated, RequireSubscriber, RequireAdmin},
	RoleSubscriber: {RequireAuthenticated, RequireSubscriber},
	RoleGuest:      {RequireAuthenticated},
}

// Satisfies reports whether an authenticated holder of role r meets req.
func (r Role) Satisfies(req Requirement) bool {
	if req == RequirePublic {
		return true
	}
	for _, s := range satisfies[r] {
		if s == req {
			return true
		}
	}
	return false
}
