package hub

import (
	"sync"
	"testing"

	"github.com/streamvista/chathub/internal/auth"
	"github.com/streamvista/chathub/internal/store"
)

func registrySession(connID string, userID *int64, role store.Role) *Session {
	return NewSession(connID, &auth.Identity{UserID: userID, Role: role, Name: connID, Locale: "en"})
}

func TestRegistryUnregisterUnknownConn(t *testing.T) {
	r := NewRegistry()

	s, affected := r.Unregister("ghost")
	if s != nil || affected != nil {
		t.Fatalf("unknown conn should be a no-op, got %v %v", s, affected)
	}
}

func TestRegistryJoinRequiresRegistration(t *testing.T) {
	r := NewRegistry()
	room := RoomID{Kind: store.RoomKindLive, ConversationID: 1}

	if r.JoinRoom(room, "ghost") {
		t.Fatalf("unregistered conn must not join rooms")
	}
	if got := len(r.MembersOf(room)); got != 0 {
		t.Fatalf("expected empty room, got %d members", got)
	}
}

func TestRegistryMembersSortedByConnID(t *testing.T) {
	r := NewRegistry()
	room := RoomID{Kind: store.RoomKindLive, ConversationID: 1}

	for _, connID := range []string{"c", "a", "b"} {
		s := registrySession(connID, nil, store.RoleGuest)
		r.Register(s)
		r.JoinRoom(room, connID)
	}

	members := r.MembersOf(room)
	want := []string{"a", "b", "c"}
	for i, m := range members {
		if m.ConnID != want[i] {
			t.Fatalf("expected deterministic order %v, got %s at %d", want, m.ConnID, i)
		}
	}
}

func TestRegistryDropRoomClearsJoinIndex(t *testing.T) {
	r := NewRegistry()
	room := RoomID{Kind: store.RoomKindBubble, ConversationID: 5}

	s := registrySession("a", nil, store.RoleGuest)
	r.Register(s)
	r.JoinRoom(room, "a")

	r.DropRoom(room)

	if got := len(r.MembersOf(room)); got != 0 {
		t.Fatalf("expected dropped room empty, got %d", got)
	}

	// a later unregister must not report the dropped room as affected.
	_, affected := r.Unregister("a")
	if len(affected) != 0 {
		t.Fatalf("dropped room leaked into join index: %v", affected)
	}
}

func TestRegistryLiveAndBubbleRoomsDoNotCollide(t *testing.T) {
	r := NewRegistry()
	live := RoomID{Kind: store.RoomKindLive, ConversationID: 9}
	bubble := RoomID{Kind: store.RoomKindBubble, ConversationID: 9}

	s := registrySession("a", nil, store.RoleGuest)
	r.Register(s)
	r.JoinRoom(live, "a")

	if got := len(r.MembersOf(bubble)); got != 0 {
		t.Fatalf("bubble room sharing the id must stay empty, got %d", got)
	}
}

func TestRegistryConcurrentChurn(t *testing.T) {
	r := NewRegistry()
	room := RoomID{Kind: store.RoomKindLive, ConversationID: 1}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := string(rune('a' + n))
			id := int64(n)
			s := registrySession(connID, &id, store.RoleUser)
			for j := 0; j < 100; j++ {
				r.Register(s)
				r.JoinRoom(room, connID)
				r.MembersOf(room)
				r.Unregister(connID)
			}
		}(i)
	}
	wg.Wait()

	if got := len(r.Sessions()); got != 0 {
		t.Fatalf("expected empty registry after churn, got %d", got)
	}
	if got := len(r.MembersOf(room)); got != 0 {
		t.Fatalf("expected empty room after churn, got %d", got)
	}
}

func TestAdminSessionsFilter(t *testing.T) {
	r := NewRegistry()

	adminID := int64(1)
	userID := int64(2)
	r.Register(registrySession("a", &adminID, store.RoleAdmin))
	r.Register(registrySession("b", &userID, store.RoleUser))
	r.Register(registrySession("c", nil, store.RoleGuest))

	admins := r.AdminSessions()
	if len(admins) != 1 || admins[0].ConnID != "a" {
		t.Fatalf("expected only the admin session, got %+v", admins)
	}
}
