package hub

import (
	"context"
	"io"
	"testing"

	"github.com/streamvista/chathub/internal/auth"
	"github.com/streamvista/chathub/internal/log"
	"github.com/streamvista/chathub/internal/proto"
	"github.com/streamvista/chathub/internal/store"
	"github.com/streamvista/chathub/internal/store/sqlite"
)

func newTestHub(t *testing.T) (*Hub, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.NewWithOutput("error", io.Discard)
	return New(st, NewDefaultTemplates(), logger), st
}

func connectUser(t *testing.T, h *Hub, userID int64, role store.Role, name string) *Session {
	t.Helper()

	id := userID
	return h.Connect(&auth.Identity{UserID: &id, Role: role, Name: name, Locale: "en"})
}

func connectGuest(t *testing.T, h *Hub, name string) *Session {
	t.Helper()

	return h.Connect(&auth.Identity{Role: store.RoleGuest, Name: name, Locale: "en"})
}

// mustEvent drains the session's queued events until one with the given
// name appears. Handlers run synchronously, so everything a call
// produced is already buffered by the time the test looks.
func mustEvent(t *testing.T, s *Session, event string) proto.Outbound {
	t.Helper()

	for {
		select {
		case out := <-s.Out:
			if out.Event == event {
				return out
			}
		default:
			t.Fatalf("expected event %q, nothing more queued", event)
			return proto.Outbound{}
		}
	}
}

func noEvent(t *testing.T, s *Session) {
	t.Helper()

	select {
	case out := <-s.Out:
		t.Fatalf("expected no event, got %q", out.Event)
	default:
	}
}

func drain(s *Session) {
	for {
		select {
		case <-s.Out:
		default:
			return
		}
	}
}

func seedUser(t *testing.T, st *sqlite.SQLiteStore, email string, role store.Role) int64 {
	t.Helper()

	u, err := st.CreateUser(context.Background(), email, email, "hash", role)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return u.ID
}

func seedConversation(t *testing.T, st *sqlite.SQLiteStore, kind store.RoomKind, ownerID *int64) int64 {
	t.Helper()

	conv, err := st.CreateConversation(context.Background(), kind, ownerID)
	if err != nil {
		t.Fatalf("failed to seed conversation: %v", err)
	}
	return conv.ID
}
