package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/pkg/metrics"
)

const (
	DefaultLandingPath           = "/browse"
	DefaultLoginPath             = "/auth/login"
	DefaultUnauthorizedPath      = "/unauthorized"
	DefaultContentSecurityPolicy = "default-src 'self'; img-src 'self' https://image.tmdb.org data:; frame-ancestors 'none'"
)

// Rule binds a path pattern to a requirement. Patterns are matched per
// segment: "*" matches exactly one segment and a trailing "**" matches any
// number of remaining segments, including none.
type Rule struct {
	Pattern     string
	Requirement domain.Requirement
}

// DefaultRules is the page access table.
func DefaultRules() []Rule {
	return []Rule{
		{"/", domain.RequirePublic},
		{"/pricing", domain.RequirePublic},
		{"/browse/**", domain.RequirePublic},
		{"/movie/*", domain.RequirePublic},
		{"/auth/**", domain.RequirePublic},
		{"/unauthorized", domain.RequirePublic},
		{"/dashboard/**", domain.RequireAuthenticated},
		{"/movie/*/watch", domain.RequireSubscriber},
		{"/admin/**", domain.RequireAdmin},
	}
}

// DefaultSkipPrefixes are never looked at by the edge filter.
func DefaultSkipPrefixes() []string {
	return []string{"/api", "/static", "/images", "/videos", "/favicon.ico", "/health", "/metrics", "/swagger"}
}

// EdgeConfig configures the page-level filter.
type EdgeConfig struct {
	Rules                 []Rule
	SkipPrefixes          []string
	AuthRoutes            []string
	LandingPath           string
	LoginPath             string
	UnauthorizedPath      string
	ContentSecurityPolicy string
	Logger                zerolog.Logger
}

func (cfg EdgeConfig) withDefaults() EdgeConfig {
	if cfg.Rules == nil {
		cfg.Rules = DefaultRules()
	}
	if cfg.SkipPrefixes == nil {
		cfg.SkipPrefixes = DefaultSkipPrefixes()
	}
	if cfg.AuthRoutes == nil {
		cfg.AuthRoutes = []string{"/auth/login", "/auth/register"}
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = DefaultLandingPath
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.UnauthorizedPath == "" {
		cfg.UnauthorizedPath = DefaultUnauthorizedPath
	}
	if cfg.ContentSecurityPolicy == "" {
		cfg.ContentSecurityPolicy = DefaultContentSecurityPolicy
	}
	return cfg
}

type compiledRule struct {
	segments    []string
	rest        bool
	requirement domain.Requirement
	score       int
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("edge rule %q: pattern must start with /", r.Pattern)
		}
		cr := compiledRule{segments: splitPath(r.Pattern), requirement: r.Requirement}
		if n := len(cr.segments); n > 0 && cr.segments[n-1] == "**" {
			cr.rest = true
			cr.segments = cr.segments[:n-1]
		}
		for _, s := range cr.segments {
			if s == "**" {
				return nil, fmt.Errorf("edge rule %q: ** is only allowed at the end", r.Pattern)
			}
			if s == "*" {
				cr.score += 2
			} else {
				cr.score += 3
			}
		}
		if !cr.rest {
			cr.score++
		}
		out = append(out, cr)
	}
	return out, nil
}

func (r compiledRule) matches(segs []string) bool {
	if len(segs) < len(r.segments) || (!r.rest && len(segs) != len(r.segments)) {
		return false
	}
	for i, s := range r.segments {
		if s != "*" && s != segs[i] {
			return false
		}
	}
	return true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// requirementFor returns the requirement of the most specific rule matching
// the request segments. Unmatched paths are public.
func requirementFor(rules []compiledRule, segs []string) domain.Requirement {
	best, bestScore := domain.RequirePublic, -1
	for _, r := range rules {
		if r.score > bestScore && r.matches(segs) {
			best, bestScore = r.requirement, r.score
		}
	}
	return best
}

// requestSegments splits the escaped path the same way echo's router does and
// only then decodes each segment. An encoded "/" stays inside its segment, so
// /movie/a%2Fb/watch is classified as the watch route echo dispatches it to.
func requestSegments(r *http.Request) ([]string, error) {
	raw := splitPath(r.URL.EscapedPath())
	segs := make([]string, len(raw))
	for i, s := range raw {
		dec, err := url.PathUnescape(s)
		if err != nil {
			return nil, fmt.Errorf("decode path segment %q: %w", s, err)
		}
		segs[i] = dec
	}
	return segs, nil
}

func hasSegmentPrefix(segs, prefix []string) bool {
	if len(prefix) > len(segs) {
		return false
	}
	for i := range prefix {
		if segs[i] != prefix[i] {
			return false
		}
	}
	return true
}

type edgeOutcome struct {
	claim    *domain.SessionClaim
	location string
}

type edgeFilter struct {
	cfg        EdgeConfig
	rules      []compiledRule
	skip       [][]string
	authRoutes [][]string
	verifier TokenVerifier
	gate     Gate
}

var errEdgePanic = errors.New("edge filter panic")

// Edge is the page-level access filter. It verifies the session token,
// applies the rule table through gate and either forwards with security
// headers or redirects. Failures inside the filter itself are logged,
// counted and the request is forwarded unchanged.
func Edge(cfg EdgeConfig, verifier TokenVerifier, gate Gate) (echo.MiddlewareFunc, error) {
	cfg = cfg.withDefaults()
	rules, err := compileRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	f := &edgeFilter{cfg: cfg, rules: rules, verifier: verifier, gate: gate}
	for _, p := range cfg.SkipPrefixes {
		f.skip = append(f.skip, splitPath(p))
	}
	for _, p := range cfg.AuthRoutes {
		f.authRoutes = append(f.authRoutes, splitPath(p))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			out, skip, err := f.safeEvaluate(c.Request())
			if err != nil {
				metrics.EdgeFailOpenTotal.Inc()
				cfg.Logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("edge filter failed open")
				return next(c)
			}
			if skip {
				return next(c)
			}
			if out.location != "" {
				return c.Redirect(http.StatusFound, out.location)
			}

			h := c.Response().Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			if out.claim != nil {
				c.Set(ClaimKey, out.claim)
			}
			return next(c)
		}
	}, nil
}

func (f *edgeFilter) safeEvaluate(r *http.Request) (out edgeOutcome, skip bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errEdgePanic, p)
		}
	}()
	return f.evaluate(r)
}

func (f *edgeFilter) evaluate(r *http.Request) (edgeOutcome, bool, error) {
	segs, err := requestSegments(r)
	if err != nil {
		return edgeOutcome{}, false, err
	}

	for _, prefix := range f.skip {
		if hasSegmentPrefix(segs, prefix) {
			return edgeOutcome{}, true, nil
		}
	}

	var claim *domain.SessionClaim
	if token := TokenFromRequest(r); token != "" {
		// An invalid or expired token is the same as no token.
		if c, err := f.verifier.Verify(token); err == nil && !c.Expired(time.Now()) {
			claim = c
		}
	}

	if claim != nil {
		for _, ar := range f.authRoutes {
			if slices.Equal(segs, ar) {
				return edgeOutcome{location: f.cfg.LandingPath}, false, nil
			}
		}
	}

	switch f.gate.Decide(claim, requirementFor(f.rules, segs)) {
	case domain.DecisionAllow:
		return edgeOutcome{claim: claim}, false, nil
	case domain.DecisionRedirect:
		target := r.URL.EscapedPath()
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		return edgeOutcome{location: f.cfg.LoginPath + "?callbackUrl=" + url.QueryEscape(target)}, false, nil
	default:
		return edgeOutcome{location: f.cfg.UnauthorizedPath}, false, nil
	}
}
