package progress

import (
	"errors"
	"testing"

	"github.com/coder/websocket"
)

func TestHubRegister(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}
	userID := "anon_user123"

	hub.Register(userID, conn)

	if got := hub.SubscriberCount(userID); got != 1 {
		t.Errorf("Expected 1 subscriber, got %d", got)
	}
}

func TestHubUnregister(t *testing.T) {
	hub := NewHub()
	conn := &websocket.Conn{}
	userID := "anon_user123"

	hub.Register(userID, conn)
	hub.Unregister(userID, conn)

	if got := hub.SubscriberCount(userID); got != 0 {
		t.Errorf("Expected 0 subscribers, got %d", got)
	}
}

func TestHubUnregisterKeepsOtherTabs(t *testing.T) {
	hub := NewHub()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}
	userID := "anon_user123"

	hub.Register(userID, conn1)
	hub.Register(userID, conn2)
	hub.Unregister(userID, conn1)

	if got := hub.SubscriberCount(userID); got != 1 {
		t.Errorf("Expected the second tab to stay subscribed, got %d", got)
	}
}

func TestHubUsersAreIsolated(t *testing.T) {
	hub := NewHub()
	hub.Register("anon_a", &websocket.Conn{})

	if got := hub.SubscriberCount("anon_b"); got != 0 {
		t.Errorf("Expected no subscribers for other user, got %d", got)
	}
}

func TestBroadcastWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub()

	// Must not panic or block; progress is advisory.
	hub.Broadcast("anon_nobody", Event{SessionID: "s", Stage: "reviewer", State: "started"})

	notifier := &SessionNotifier{Hub: hub, UserID: "anon_nobody"}
	notifier.StageStarted("s", "coach")
	notifier.StageFinished("s", "coach", errors.New("generation failed"))
}
