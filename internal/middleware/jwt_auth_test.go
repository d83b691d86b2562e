package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/anonto42/job-board/backend/internal/session"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser map[string]session.Session

// unreachable is a token whose revocation status cannot be looked up
const unreachable = "unreachable"

func (p stubParser) ParseToken(_ context.Context, token string) (session.Session, error) {
	if sess, ok := p[token]; ok {
		return sess, nil
	}
	if token == unreachable {
		return session.Session{}, errors.New("sql: database is closed")
	}
	return session.Session{}, services.ErrInvalidToken
}

func whoAmI(c echo.Context) error {
	sess, ok := session.FromContext(c.Request().Context())
	if !ok {
		return c.String(http.StatusOK, "anonymous")
	}
	return c.String(http.StatusOK, sess.UserID.String())
}

func serve(t *testing.T, mw echo.MiddlewareFunc, target, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/me", whoAmI, mw)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthMiddleware(t *testing.T) {
	user := uuid.New()
	parser := stubParser{"good": {UserID: user}}
	mw := JWTAuthMiddleware(parser)

	rec := serve(t, mw, "/me", "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.String(), rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(t, mw, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, mw, "/me", "Bearer bad").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(t, mw, "/me", "Token good").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(t, mw, "/me", "Bearer "+unreachable).Code)

	rec = serve(t, mw, "/me?access_token=good", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.String(), rec.Body.String())
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	user := uuid.New()
	mw := OptionalJWTAuthMiddleware(stubParser{"good": {UserID: user}})

	rec := serve(t, mw, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(t, mw, "/me", "Bearer good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user.String(), rec.Body.String())

	rec = serve(t, mw, "/me", "Bearer expired")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	for _, header := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer a b"} {
		rec = serve(t, mw, "/me", header)
		require.Equal(t, http.StatusOK, rec.Code, header)
		assert.Equal(t, "anonymous", rec.Body.String(), header)
	}

	assert.Equal(t, http.StatusInternalServerError, serve(t, mw, "/me", "Bearer "+unreachable).Code)
}

func TestRequireSession(t *testing.T) {
	user := uuid.New()
	e := echo.New()
	e.GET("/me", whoAmI, OptionalJWTAuthMiddleware(stubParser{"good": {UserID: user}}), RequireSession())

	do := func(authHeader string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if authHeader != "" {
			req.Header.Set(echo.HeaderAuthorization, authHeader)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, do("").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Bearer expired").Code)
	assert.Equal(t, http.StatusUnauthorized, do("Basic abc").Code)
	assert.Equal(t, http.StatusOK, do("Bearer good").Code)
}
