package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/together/internal/auth"
	"github.com/nfrund/together/internal/domain"
)

const (
	// ClaimsContextKey holds the *auth.Claims of an authenticated request.
	ClaimsContextKey = "claims"
	// CredentialsContextKey holds the raw token the request authenticated with.
	CredentialsContextKey = "credentials"

	// SessionName is the cookie session that carries a token for browsers
	// that cannot set headers on websocket upgrades.
	SessionName = "together"
	// SessionTokenKey is the session value holding the token.
	SessionTokenKey = "access_token"
	// QueryTokenParam is the query parameter fallback for the token.
	QueryTokenParam = "access_token"
)

// TokenParser verifies an access token.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// Auth rejects requests without a valid access token with 401. The token
// is taken from the Authorization header, then the access_token query
// parameter, then the cookie session.
func Auth(tokens TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := Credentials(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required").SetInternal(domain.ErrAuthentication)
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				FromContext(c.Request().Context()).Debug("rejected access token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token").SetInternal(err)
			}

			c.Set(ClaimsContextKey, claims)
			c.Set(CredentialsContextKey, raw)
			return next(c)
		}
	}
}

// RequireRole allows only members whose token carries role. It must run
// after Auth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required").SetInternal(domain.ErrAuthentication)
			}
			if claims.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role").SetInternal(domain.ErrForbidden)
			}
			return next(c)
		}
	}
}

// Credentials extracts the raw token from the request, or "".
func Credentials(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if token := c.QueryParam(QueryTokenParam); token != "" {
		return token
	}
	sess, err := session.Get(SessionName, c)
	if err != nil {
		return ""
	}
	token, _ := sess.Values[SessionTokenKey].(string)
	return token
}

// ClaimsFrom returns the claims stored by Auth.
func ClaimsFrom(c echo.Context) (*auth.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}
