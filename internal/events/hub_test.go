package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversOnlyToAffectedUser(t *testing.T) {
	hub := NewHub()
	alice, bob := uuid.New(), uuid.New()

	aliceCh := hub.Subscribe(alice)
	bobCh := hub.Subscribe(bob)
	defer hub.Unsubscribe(aliceCh)
	defer hub.Unsubscribe(bobCh)

	hub.Publish(AuthEvent{Type: SignedIn, UserID: alice, At: time.Now()})

	select {
	case evt := <-aliceCh:
		assert.Equal(t, SignedIn, evt.Type)
		assert.Equal(t, alice, evt.UserID)
	default:
		t.Fatal("expected an event for alice")
	}

	select {
	case evt := <-bobCh:
		t.Fatalf("bob received %+v", evt)
	default:
	}
}

func TestHubDropsWhenSubscriberIsSlow(t *testing.T) {
	hub := NewHub()
	user := uuid.New()
	ch := hub.Subscribe(user)

	for i := 0; i < 25; i++ {
		hub.Publish(AuthEvent{Type: SignedOut, UserID: user})
	}
	assert.Len(t, ch, cap(ch))

	hub.Unsubscribe(ch)
	hub.Unsubscribe(ch) // second call is a no-op

	_, open := <-drain(ch)
	require.False(t, open)
}

func drain(ch chan AuthEvent) chan AuthEvent {
	for range ch {
	}
	return ch
}
