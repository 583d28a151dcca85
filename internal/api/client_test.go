package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vestigio/webclient/internal/game"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(zerolog.Nop(), srv.URL, 5*time.Second)
}

func TestAuthenticate(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/authenticate", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@example.com", body["email"])

		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-1"})
	}))

	token, err := c.Authenticate(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
}

func TestBearerTokenIsSent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(User{ID: 1, Name: "Ana"})
	}))

	user, err := c.WithToken("tok-1").Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "Ana", user.Name)
}

func TestWithTokenDoesNotMutateReceiver(t *testing.T) {
	c := New(zerolog.Nop(), "http://example.invalid", time.Second)
	scoped := c.WithToken("tok-1")

	assert.Empty(t, c.token)
	assert.Equal(t, "tok-1", scoped.token)
}

func TestRejectedTokenMapsToErrUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := c.WithToken("expired").Me(context.Background())
		require.ErrorIs(t, err, ErrUnauthorized, "status %d", status)
	}
}

func TestServerErrorMessageIsSurfaced(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "sala cheia"})
	}))

	_, err := c.WithToken("tok-1").JoinSession(context.Background(), "ABC123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sala cheia")
}

func TestJoinSession(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/player/game-sessions/ABC123/join", r.URL.Path)
		_ = json.NewEncoder(w).Encode(game.Session{ID: 42, RoomCode: "ABC123", Status: game.StatusWaitingForPlayers})
	}))

	session, err := c.WithToken("tok-1").JoinSession(context.Background(), "ABC123")
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.ID)
	assert.Equal(t, "ABC123", session.Room())
}

func TestCreateSessionSendsConfigParams(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/player/game-sessions", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "VESTIGIO", body["gameType"])

		params, ok := body["configParams"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 9, params["storyId"])

		_ = json.NewEncoder(w).Encode(game.Session{ID: 1, RoomCode: "NEW001"})
	}))

	session, err := c.WithToken("tok-1").CreateSession(context.Background(), game.TypeVestigio, ConfigParams{"storyId": 9})
	require.NoError(t, err)
	assert.Equal(t, "NEW001", session.Room())
}

func TestSendAction(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/player/game-sessions/ABC123/action", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "GUESS_LETTER", body["actionType"])

		payload, ok := body["payload"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "A", payload["letter"])

		w.WriteHeader(http.StatusOK)
	}))

	err := c.WithToken("tok-1").SendAction(context.Background(), "ABC123", game.ActionGuessLetter, map[string]string{"letter": "A"})
	require.NoError(t, err)
}

func TestRandomStories(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/player/stories/random", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		_ = json.NewEncoder(w).Encode([]game.Story{{ID: 1, Title: "O Elevador"}})
	}))

	stories, err := c.WithToken("tok-1").RandomStories(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "O Elevador", stories[0].Title)
}
