package handler

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/moviestream/streaming-api/internal/api/middleware"
	"github.com/moviestream/streaming-api/internal/core/domain"
	"github.com/moviestream/streaming-api/internal/core/ports"
)

const (
	oauthStateCookie  = "moviestream_oauth_state"
	oauthReturnCookie = "moviestream_oauth_return"
	oauthCookiePath   = "/api/auth/oauth"
	oauthStateTTL     = 10 * time.Minute
	authErrorPath     = "/auth/error"
)

// CookieConfig controls the session cookie written on login.
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	providers   ports.IdentityProviderRegistry
	cookie      CookieConfig
	landingPath string
	log         zerolog.Logger
}

func NewAuthHandler(
	authService ports.AuthService,
	providers ports.IdentityProviderRegistry,
	cookie CookieConfig,
	landingPath string,
	log zerolog.Logger,
) *AuthHandler {
	if providers == nil {
		providers = ports.IdentityProviderRegistry{}
	}
	if landingPath == "" {
		landingPath = middleware.DefaultLandingPath
	}
	return &AuthHandler{
		authService: authService,
		providers:   providers,
		cookie:      cookie,
		landingPath: landingPath,
		log:         log,
	}
}

// Register creates a new guest account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  accountEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	account, err := h.authService.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, accountEnvelope{User: account})
}

// Login authenticates with email and password, sets the session cookie and
// returns the token for API clients.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	session, account, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, deviceInfo(c))
	if err != nil {
		return err
	}

	h.setSessionCookie(c, session)
	return c.JSON(http.StatusOK, toSessionResponse(session, account))
}

// Logout clears the session cookie. Issued tokens stay valid until they expire.
//
// @Summary      Logout
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if claim := optionalClaim(c); claim != nil {
		h.authService.Logout(c.Request().Context(), claim)
	}
	h.clearCookie(c, middleware.SessionCookie, "/")
	return c.NoContent(http.StatusNoContent)
}

// Session returns the verified claim of the current session.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	claim, err := ctxClaim(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sessionResponse{
		Claim:     claim,
		ExpiresAt: claim.ExpiresAt,
	})
}

// Refresh re-issues the session from the current account state. When the
// account store is unreachable the existing session is returned with stale=true.
//
// @Summary      Refresh session
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  sessionResponse
// @Failure      401  {object}  errorResponse
// @Router       /auth/session/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	claim, err := ctxClaim(c)
	if err != nil {
		return err
	}

	current := &domain.Session{Token: middleware.TokenFromRequest(c.Request()), Claim: claim}
	session, err := h.authService.Refresh(c.Request().Context(), current)
	if err != nil {
		h.clearCookie(c, middleware.SessionCookie, "/")
		return err
	}

	if !session.Stale {
		h.setSessionCookie(c, session)
	}
	return c.JSON(http.StatusOK, toSessionResponse(session, nil))
}

// OAuthLogin starts the authorization code flow with an identity provider.
//
// @Summary      Start OAuth login
// @Tags         auth
// @Param        provider     path   string  true   "Provider name"
// @Param        callbackUrl  query  string  false  "Local path to return to"
// @Success      302
// @Failure      404  {object}  errorResponse
// @Router       /auth/oauth/{provider}/login [get]
func (h *AuthHandler) OAuthLogin(c echo.Context) error {
	provider, ok := h.providers[strings.ToLower(c.Param("provider"))]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown identity provider")
	}

	state, err := newOAuthState()
	if err != nil {
		return err
	}
	h.setShortCookie(c, oauthStateCookie, state)
	h.setShortCookie(c, oauthReturnCookie, safeReturnPath(c.QueryParam("callbackUrl"), h.landingPath))

	return c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// OAuthCallback completes the provider login and redirects to the page the
// user started from. Failures redirect to the auth error page.
//
// @Summary      OAuth callback
// @Tags         auth
// @Param        provider  path   string  true  "Provider name"
// @Param        code      query  string  true  "Authorization code"
// @Param        state     query  string  true  "State echoed by the provider"
// @Success      302
// @Router       /auth/oauth/{provider}/callback [get]
func (h *AuthHandler) OAuthCallback(c echo.Context) error {
	name := strings.ToLower(c.Param("provider"))
	provider, ok := h.providers[name]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown identity provider")
	}

	returnTo := h.landingPath
	if ck, err := c.Cookie(oauthReturnCookie); err == nil {
		returnTo = safeReturnPath(ck.Value, h.landingPath)
	}
	expected := ""
	if ck, err := c.Cookie(oauthStateCookie); err == nil {
		expected = ck.Value
	}
	h.clearCookie(c, oauthStateCookie, oauthCookiePath)
	h.clearCookie(c, oauthReturnCookie, oauthCookiePath)

	if reason := c.QueryParam("error"); reason != "" {
		h.log.Warn().Str("provider", name).Str("reason", reason).Msg("provider returned an error")
		return h.authError(c, domain.ErrProviderAssertionInvalid)
	}

	state := c.QueryParam("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		h.log.Warn().Str("provider", name).Msg("oauth state mismatch")
		return h.authError(c, domain.ErrProviderAssertionInvalid)
	}

	ctx := c.Request().Context()
	assertion, err := provider.Exchange(ctx, c.QueryParam("code"))
	if err != nil {
		h.log.Warn().Err(err).Str("provider", name).Msg("provider exchange failed")
		return h.authError(c, err)
	}

	session, _, err := h.authService.LoginWithProvider(ctx, *assertion, deviceInfo(c))
	if err != nil {
		h.log.Warn().Err(err).Str("provider", name).Msg("provider login failed")
		return h.authError(c, err)
	}

	h.setSessionCookie(c, session)
	return c.Redirect(http.StatusFound, returnTo)
}

func (h *AuthHandler) authError(c echo.Context, err error) error {
	reason := "unavailable"
	switch {
	case errors.Is(err, domain.ErrProviderAssertionInvalid):
		reason = "provider"
	case errors.Is(err, domain.ErrInvalidCredentials):
		reason = "credentials"
	}
	return c.Redirect(http.StatusFound, authErrorPath+"?error="+url.QueryEscape(reason))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, session *domain.Session) {
	maxAge := int(h.cookie.TTL.Seconds())
	if maxAge <= 0 {
		maxAge = int(time.Until(session.Claim.ExpiresAt).Seconds())
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) setShortCookie(c echo.Context, name, value string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     oauthCookiePath,
		MaxAge:   int(oauthStateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name, path string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newOAuthState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// safeReturnPath only accepts local absolute paths.
func safeReturnPath(p, fallback string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fallback
	}
	return p
}
