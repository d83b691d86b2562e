package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/anonto42/job-board/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const eventsKeepAlive = 30 * time.Second

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group, requireSession echo.MiddlewareFunc) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/oauth/firebase", h.FirebaseLogin)
	g.POST("/password/forgot", h.ForgotPassword)
	g.POST("/password/reset", h.ResetPassword)

	g.POST("/signout", h.SignOut, requireSession)
	g.PUT("/password", h.UpdatePassword, requireSession)
	g.GET("/me", h.Me, requireSession)
	g.GET("/events", h.Events, requireSession)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignUpRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.SignUp(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.SignIn(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// FirebaseLogin verifies a Firebase ID token and issues a local session token
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	resp, err := h.authService.SignInWithFirebase(c.Request().Context(), req.IDToken)
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// SignOut revokes the presented session token
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.authService.SignOut(c.Request().Context()); err != nil {
		return serviceError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ForgotPassword starts password recovery. The response never reveals whether the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req models.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusAccepted, echo.Map{"message": "If the account exists, a reset link has been sent"})
}

// ResetPassword sets a new password with a recovery token
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req models.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated"})
}

// UpdatePassword changes the caller's password
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req models.UpdatePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.UpdatePassword(c.Request().Context(), req.Password); err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Password updated"})
}

// Me returns the signed-in user
func (h *AuthHandler) Me(c echo.Context) error {
	user, err := h.authService.CurrentUser(c.Request().Context())
	if err != nil {
		return serviceError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Events streams the caller's auth state changes as server-sent events
func (h *AuthHandler) Events(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	hub := h.authService.Events()
	ch := hub.Subscribe(sess.UserID)
	defer hub.Unsubscribe(ch)

	fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	ticker := time.NewTicker(eventsKeepAlive)
	defer ticker.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			w.Flush()
		case evt, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(evt)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			w.Flush()
		}
	}
}
