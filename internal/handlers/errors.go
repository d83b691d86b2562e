package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/job-board/backend/internal/repositories"
	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/anonto42/job-board/backend/internal/session"
	"github.com/anonto42/job-board/backend/validators"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// bindAndValidate decodes the request body into req and runs the registered validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		var fieldErrors validators.FieldErrors
		if errors.As(err, &fieldErrors) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{"errors": fieldErrors})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func pathID(c echo.Context, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	}
	return id, nil
}

// serviceError translates service and repository errors into HTTP errors.
// Anything unrecognised is a store failure, already logged by the service.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	case errors.Is(err, services.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this job")
	case errors.Is(err, services.ErrJobNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Job not found")
	case errors.Is(err, repositories.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, services.ErrResetTokenInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, "Password reset token is invalid or expired")
	case errors.Is(err, services.ErrOAuthUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "OAuth sign-in is not configured")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error").SetInternal(err)
}

func currentSession(c echo.Context) (session.Session, error) {
	sess, ok := session.FromContext(c.Request().Context())
	if !ok {
		return session.Session{}, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return sess, nil
}
