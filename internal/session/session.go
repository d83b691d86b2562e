// Package session carries the authenticated caller of a request through context.Context.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Session is the proof of an authenticated user attached to a request
type Session struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying s
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	if !ok || s.UserID == uuid.Nil {
		return Session{}, false
	}
	return s, true
}
