package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`                                         // bcrypt hash, empty for OAuth-only accounts
	FirebaseUID  *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,max=80"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest carries the ID token issued by Firebase after an OAuth sign-in
type FirebaseLoginRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdatePasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	DisplayName string `json:"display_name" validate:"required,max=80"`
}

// AuthResponse is returned by every sign-in flow
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// RevokedToken marks a signed-out session token until it would have expired anyway
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey"`
	ExpiresAt time.Time `gorm:"index"`
}

// PasswordReset is a single-use password recovery token. Only its hash is stored.
type PasswordReset struct {
	ID        uint       `gorm:"primaryKey"`
	TokenHash string     `gorm:"uniqueIndex;not null"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ExpiresAt time.Time  `gorm:"not null"`
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Tables lists every model migrated into PostgreSQL
func Tables() []interface{} {
	return []interface{}{
		&User{},
		&Job{},
		&SavedJob{},
		&RevokedToken{},
		&PasswordReset{},
	}
}
