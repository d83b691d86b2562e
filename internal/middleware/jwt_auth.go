package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/anonto42/job-board/backend/internal/session"
	"github.com/labstack/echo/v4"
)

// TokenParser turns a bearer token into the session it proves
type TokenParser interface {
	ParseToken(ctx context.Context, token string) (session.Session, error)
}

var errNoToken = errors.New("no bearer token")

// JWTAuthMiddleware checks for a valid session token and stores the session
// in the request context. Requests without one are rejected.
func JWTAuthMiddleware(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			sess, err := parser.ParseToken(c.Request().Context(), tokenString)
			if err != nil {
				return tokenError(err)
			}

			withSession(c, sess)
			return next(c)
		}
	}
}

// OptionalJWTAuthMiddleware attaches the session when a valid token is
// presented and lets anonymous requests through otherwise.
func OptionalJWTAuthMiddleware(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// a missing or malformed header is an anonymous request
			tokenString, err := bearerToken(c)
			if err != nil {
				return next(c)
			}

			sess, err := parser.ParseToken(c.Request().Context(), tokenString)
			switch {
			case err == nil:
				withSession(c, sess)
			case !errors.Is(err, services.ErrInvalidToken):
				return tokenError(err)
			}
			return next(c)
		}
	}
}

// RequireSession rejects requests that reached it without a session.
// It is meant to sit behind OptionalJWTAuthMiddleware.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := session.FromContext(c.Request().Context()); !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			return next(c)
		}
	}
}

// tokenError answers 401 for rejected tokens and 500 when they could not be checked
func tokenError(err error) error {
	if errors.Is(err, services.ErrInvalidToken) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

func withSession(c echo.Context, sess session.Session) {
	req := c.Request()
	c.SetRequest(req.WithContext(session.NewContext(req.Context(), sess)))
}

// bearerToken reads "Authorization: Bearer <token>". EventSource clients
// cannot set headers, so the access_token query parameter is accepted too.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if token := c.QueryParam("access_token"); token != "" {
			return token, nil
		}
		return "", errNoToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", errors.New("Invalid Authorization header format")
	}
	return parts[1], nil
}
