package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	SignedIn        = "signed_in"
	SignedOut       = "signed_out"
	PasswordUpdated = "password_updated"
)

// AuthEvent is a change of a user's authentication state
type AuthEvent struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	At     time.Time `json:"at"`
}

// Hub fans auth events out to the subscribers of the affected user
type Hub struct {
	mu      sync.Mutex
	clients map[chan AuthEvent]uuid.UUID
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan AuthEvent]uuid.UUID)}
}

func (h *Hub) Subscribe(userID uuid.UUID) chan AuthEvent {
	ch := make(chan AuthEvent, 10)
	h.mu.Lock()
	h.clients[ch] = userID
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan AuthEvent) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(evt AuthEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch, userID := range h.clients {
		if userID != evt.UserID {
			continue
		}
		select {
		case ch <- evt:
		default:
			// drop if slow
		}
	}
}
