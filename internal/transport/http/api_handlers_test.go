package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvista/chathub/internal/auth"
	"github.com/streamvista/chathub/internal/config"
	"github.com/streamvista/chathub/internal/hub"
	"github.com/streamvista/chathub/internal/log"
	"github.com/streamvista/chathub/internal/store"
	"github.com/streamvista/chathub/internal/store/sqlite"
)

func newTestServer(t *testing.T) (*httptest.Server, *auth.Service, *sqlite.SQLiteStore) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := log.NewWithOutput("error", io.Discard)

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      config.Default().JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig, "en")

	h := hub.New(st, hub.NewDefaultTemplates(), logger)
	server := NewServer(h, authService, st, config.Default(), logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, authService, st
}

func postJSON(t *testing.T, ts *httptest.Server, path string, body any) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := ts.Client().Post(ts.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterLoginFlow(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts, "/api/register", RegisterRequest{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered AuthResponse
	decodeJSON(t, resp, &registered)
	assert.NotEmpty(t, registered.Token)

	// duplicate registration conflicts.
	resp = postJSON(t, ts, "/api/register", RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = postJSON(t, ts, "/api/login", LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logged AuthResponse
	decodeJSON(t, resp, &logged)
	assert.NotEmpty(t, logged.Token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts, "/api/login", LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRejectsMalformedBody(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := ts.Client().Post(ts.URL+"/api/register", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGuestTokenEndpoint(t *testing.T) {
	ts, authService, _ := newTestServer(t)

	resp := postJSON(t, ts, "/api/guest", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var guest AuthResponse
	decodeJSON(t, resp, &guest)
	require.NotEmpty(t, guest.Token)

	identity, err := authService.Resolve(guest.Token)
	require.NoError(t, err)
	assert.Nil(t, identity.UserID)
}

func TestNotificationEndpointsRequireAuth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/api/notifications")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotificationEndpointsRejectGuestTokens(t *testing.T) {
	ts, authService, _ := newTestServer(t)

	token, err := authService.GuestToken()
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/notifications", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConversationUnreadCount(t *testing.T) {
	ts, _, st := newTestServer(t)

	resp := postJSON(t, ts, "/api/register", RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered AuthResponse
	decodeJSON(t, resp, &registered)

	ctx := context.Background()
	user, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)

	conv, err := st.CreateConversation(ctx, store.RoomKindBubble, &user.ID)
	require.NoError(t, err)

	// two unanswered admin replies and one of alice's own messages.
	for _, body := range []string{"reply one", "reply two"} {
		_, err := st.CreateMessage(ctx, &store.Message{
			ConversationID: conv.ID,
			Body:           body,
			SenderIsAdmin:  true,
		})
		require.NoError(t, err)
	}
	_, err = st.CreateMessage(ctx, &store.Message{
		ConversationID: conv.ID,
		SenderID:       &user.ID,
		Body:           "own message",
	})
	require.NoError(t, err)

	unreadCount := func() int64 {
		path := "/api/conversations/" + strconv.FormatInt(conv.ID, 10) + "/unread_count"
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+registered.Token)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var count struct {
			Count int64 `json:"count"`
		}
		decodeJSON(t, resp, &count)
		return count.Count
	}

	// a customer counts only the admin side.
	assert.Equal(t, int64(2), unreadCount())

	_, err = st.MarkConversationRead(ctx, conv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unreadCount())
}

func TestConversationUnreadCountRejectsBadID(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts, "/api/register", RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered AuthResponse
	decodeJSON(t, resp, &registered)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/conversations/abc/unread_count", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNotificationInboxFlow(t *testing.T) {
	ts, _, st := newTestServer(t)

	resp := postJSON(t, ts, "/api/register", RegisterRequest{
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var registered AuthResponse
	decodeJSON(t, resp, &registered)

	user, err := st.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	for _, title := range []string{"first", "second"} {
		_, err := st.CreateNotification(context.Background(), &store.Notification{
			RecipientUserID: user.ID,
			Type:            "system",
			Title:           title,
		})
		require.NoError(t, err)
	}

	authedGet := func(path string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+registered.Token)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = authedGet("/api/notifications")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []NotificationResponse
	decodeJSON(t, resp, &list)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Title)

	resp = authedGet("/api/notifications/unread_count")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var count struct {
		Count int64 `json:"count"`
	}
	decodeJSON(t, resp, &count)
	assert.Equal(t, int64(2), count.Count)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/notifications/read", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+registered.Token)
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = authedGet("/api/notifications/unread_count")
	decodeJSON(t, resp, &count)
	assert.Equal(t, int64(0), count.Count)
}
