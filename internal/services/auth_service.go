package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/job-board/backend/internal/events"
	"github.com/anonto42/job-board/backend/internal/models"
	"github.com/anonto42/job-board/backend/internal/repositories"
	"github.com/anonto42/job-board/backend/internal/session"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("user with this email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrOAuthUnavailable   = errors.New("oauth sign-in is not configured")
	ErrResetTokenInvalid  = repositories.ErrResetTokenInvalid
)

const passwordResetTTL = time.Hour

// IDTokenVerifier verifies ID tokens issued by the OAuth identity provider.
// *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Mailer delivers password recovery links
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, link string) error
}

// LogMailer writes recovery links to the log instead of sending mail
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	m.Logger.InfoContext(ctx, "password reset requested", "email", email, "link", link)
	return nil
}

// AuthConfig holds the settings of the session token issuer
type AuthConfig struct {
	JWTSecret        string
	TokenTTL         time.Duration
	PasswordResetURL string
}

// AuthService is the identity provider of the job board: it signs users in,
// issues session tokens and tracks their revocation.
type AuthService struct {
	users    repositories.UserRepository
	tokens   repositories.TokenRepository
	verifier IDTokenVerifier
	mailer   Mailer
	hub      *events.Hub
	cfg      AuthConfig
	logger   *slog.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService. verifier may be nil, in which case
// OAuth sign-in reports ErrOAuthUnavailable.
func NewAuthService(
	users repositories.UserRepository,
	tokens repositories.TokenRepository,
	verifier IDTokenVerifier,
	mailer Mailer,
	hub *events.Hub,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 72 * time.Hour
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		mailer:   mailer,
		hub:      hub,
		cfg:      cfg,
		logger:   logger.With("component", "auth-service"),
		now:      time.Now,
	}
}

// SignUp registers a local account and signs it in
func (s *AuthService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	email := normalizeEmail(req.Email)

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return s.issue(ctx, user)
}

// SignIn authenticates a local account by email and password
func (s *AuthService) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	// OAuth-only accounts have no password
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(ctx, user)
}

// SignInWithFirebase exchanges a Firebase ID token for a session token, linking
// or creating the matching local account.
func (s *AuthService) SignInWithFirebase(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	if s.verifier == nil {
		return nil, ErrOAuthUnavailable
	}

	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.WarnContext(ctx, "firebase id token rejected", "error", err)
		return nil, ErrInvalidToken
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	email = normalizeEmail(email)
	name, _ := token.Claims["name"].(string)

	user, err := s.users.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
		if name != "" && user.DisplayName == "" {
			user.DisplayName = name
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, err
			}
		}
	case errors.Is(err, repositories.ErrUserNotFound):
		if email == "" {
			return nil, ErrInvalidToken
		}
		user, err = s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			// link the existing local account
			user.FirebaseUID = &firebaseUID
			if user.DisplayName == "" {
				user.DisplayName = name
			}
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, err
			}
		case errors.Is(err, repositories.ErrUserNotFound):
			user = &models.User{
				Email:       email,
				DisplayName: name,
				FirebaseUID: &firebaseUID,
			}
			if err := s.users.CreateUser(ctx, user); err != nil {
				return nil, err
			}
			s.logger.InfoContext(ctx, "user signed up with firebase", "user_id", user.ID)
		default:
			return nil, err
		}
	default:
		return nil, err
	}

	return s.issue(ctx, user)
}

// SignOut revokes the session token carried by ctx
func (s *AuthService) SignOut(ctx context.Context) error {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return ErrUnauthenticated
	}

	if err := s.tokens.RevokeToken(ctx, sess.TokenID, sess.ExpiresAt); err != nil {
		return err
	}
	s.publish(events.SignedOut, sess.UserID)
	return nil
}

// ParseToken validates a session token and returns the session it proves
func (s *AuthService) ParseToken(ctx context.Context, tokenString string) (session.Session, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return session.Session{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return session.Session{}, ErrInvalidToken
	}

	revoked, err := s.tokens.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		return session.Session{}, fmt.Errorf("check token revocation: %w", err)
	}
	if revoked {
		return session.Session{}, ErrInvalidToken
	}

	return session.Session{
		UserID:    userID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// CurrentUser returns the account of the session user
func (s *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	sess, ok := session.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return s.users.GetUserByID(ctx, sess.UserID)
}

// UpdateProfile changes the display name of the session user
func (s *AuthService) UpdateProfile(ctx context.Context, req models.UpdateUserRequest) (*models.User, error) {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	user.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset mails a recovery link when email belongs to an account.
// Unknown addresses are not reported.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	reset := &models.PasswordReset{
		TokenHash: hashToken(token),
		UserID:    user.ID,
		ExpiresAt: s.now().Add(passwordResetTTL),
	}
	if err := s.tokens.CreatePasswordReset(ctx, reset); err != nil {
		return err
	}

	link, err := url.Parse(s.cfg.PasswordResetURL)
	if err != nil {
		return fmt.Errorf("parse password reset url: %w", err)
	}
	q := link.Query()
	q.Set("token", token)
	link.RawQuery = q.Encode()

	return s.mailer.SendPasswordReset(ctx, user.Email, link.String())
}

// ResetPassword sets a new password using a recovery token. Each token works once.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	reset, err := s.tokens.ConsumePasswordReset(ctx, hashToken(token), s.now())
	if err != nil {
		return err
	}

	user, err := s.users.GetUserByID(ctx, reset.UserID)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user, password)
}

// UpdatePassword changes the password of the session user
func (s *AuthService) UpdatePassword(ctx context.Context, password string) error {
	user, err := s.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user, password)
}

// Events returns the hub auth state changes are published on
func (s *AuthService) Events() *events.Hub {
	return s.hub
}

// PurgeExpired drops revocations and recovery tokens past their expiry
func (s *AuthService) PurgeExpired(ctx context.Context) error {
	return s.tokens.PurgeExpired(ctx, s.now())
}

func (s *AuthService) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.publish(events.PasswordUpdated, user.ID)
	return nil
}

// issue signs a session token for user
func (s *AuthService) issue(ctx context.Context, user *models.User) (*models.AuthResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenTTL)

	claims := &models.JwtCustomClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.InfoContext(ctx, "user signed in", "user_id", user.ID)
	s.publish(events.SignedIn, user.ID)
	return &models.AuthResponse{Token: signed, ExpiresAt: expiresAt, User: user}, nil
}

func (s *AuthService) publish(eventType string, userID uuid.UUID) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(events.AuthEvent{Type: eventType, UserID: userID, At: s.now()})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
