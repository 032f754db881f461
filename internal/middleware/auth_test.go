package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/together/internal/auth"
	"github.com/nfrund/together/internal/domain"
)

func newTestEcho(t *testing.T) (*echo.Echo, *auth.Tokens) {
	t.Helper()

	tokens := auth.NewTokens("middleware-test-secret", "together", time.Hour)
	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("middleware-session-secret"))))

	whoami := func(c echo.Context) error {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		return c.String(http.StatusOK, fmt.Sprintf("member %s %s", claims.Idx, claims.Role))
	}
	e.GET("/me", whoami, Auth(tokens))
	e.GET("/admin", whoami, Auth(tokens), RequireRole(domain.RoleAdmin))
	e.POST("/login", func(c echo.Context) error {
		sess, err := session.Get(SessionName, c)
		if err != nil {
			return err
		}
		sess.Values[SessionTokenKey] = c.FormValue("token")
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	})
	return e, tokens
}

func TestAuthMiddleware(t *testing.T) {
	e, tokens := newTestEcho(t)

	userToken, err := tokens.Issue(domain.Member{ID: 7, Email: "seven@example.com"})
	require.NoError(t, err)
	adminToken, err := tokens.Issue(domain.Member{ID: 1, Role: domain.RoleAdmin})
	require.NoError(t, err)

	t.Run("missing token is rejected with 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token is rejected with 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+userToken)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "member 7 USER", rec.Body.String())
	})

	t.Run("query parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me?access_token="+userToken, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("cookie session", func(t *testing.T) {
		form := url.Values{"token": {userToken}}
		login := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
		login.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		loginRec := httptest.NewRecorder()
		e.ServeHTTP(loginRec, login)
		require.Equal(t, http.StatusNoContent, loginRec.Code)

		cookies := loginRec.Result().Cookies()
		require.NotEmpty(t, cookies)

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "member 7 USER", rec.Body.String())
	})

	t.Run("role check", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+userToken)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+adminToken)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "member 1 ADMIN", rec.Body.String())
	})
}

func TestCredentialsPrecedence(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?access_token=from-query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "from-header", Credentials(c))

	req = httptest.NewRequest(http.MethodGet, "/?access_token=from-query", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, "from-query", Credentials(c))

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Empty(t, Credentials(c))
}
