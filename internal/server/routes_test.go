package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/together/internal/auth"
	"github.com/nfrund/together/internal/config"
	"github.com/nfrund/together/internal/domain"
	"github.com/nfrund/together/internal/members"
	"github.com/nfrund/together/internal/pubsub"
	"github.com/nfrund/together/internal/server"
	"github.com/nfrund/together/internal/together"
	"github.com/nfrund/together/internal/topicmgr"
	"github.com/nfrund/together/internal/websocket"
)

type testEnv struct {
	hub    *together.Hub
	tokens *auth.Tokens
	server *httptest.Server
}

func setupServer(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Addr:          ":0",
		JWTSecret:     "server-test-jwt-secret",
		JWTIssuer:     "together",
		TokenTTL:      time.Hour,
		SessionSecret: "server-test-session-secret",
		Timezone:      "UTC",
		SendBuffer:    16,
		RateLimit:     100,
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	directory := members.NewStatic(
		domain.Member{ID: 1, Name: "admin", Role: domain.RoleAdmin},
		domain.Member{ID: 7, Name: "alice"},
		domain.Member{ID: 9, Name: "bob"},
	)
	bus := pubsub.NewWatermillBridge()
	hub := together.NewHub(tokens, directory, together.NewPubSubBroadcaster(bus))
	topics := topicmgr.NewManager()
	require.NoError(t, together.RegisterTopics(topics))
	endpoint := websocket.NewEndpoint(hub, bus, topics, cfg.SendBuffer)

	s, err := server.New(server.Dependencies{
		Config:   cfg,
		Hub:      hub,
		Tokens:   tokens,
		Endpoint: endpoint,
		Topics:   topics,
	})
	require.NoError(t, err)
	s.RegisterRoutes()

	ts := httptest.NewServer(s.E)
	t.Cleanup(func() {
		endpoint.Shutdown()
		ts.Close()
		_ = bus.Close()
	})
	return &testEnv{hub: hub, tokens: tokens, server: ts}
}

func (env *testEnv) token(t *testing.T, m domain.Member) string {
	t.Helper()
	token, err := env.tokens.Issue(m)
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(t *testing.T, method, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, env.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_MissingDependencies(t *testing.T) {
	_, err := server.New(server.Dependencies{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := setupServer(t)
	env.hub.Registry().Register(together.ChatTopic(1), 7)
	env.hub.Registry().Register(together.ChatTopic(1), 9)

	resp := env.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]any{"status": "ok", "topics": float64(1), "memberships": float64(2)}, body)
}

func TestParticipantsAndKick(t *testing.T) {
	env := setupServer(t)
	topic := together.ChatTopic(42)
	env.hub.Registry().Register(topic, 7)
	env.hub.Registry().Register(topic, 9)
	env.hub.Registry().Register(topic, 404)

	userToken := env.token(t, domain.Member{ID: 7})
	adminToken := env.token(t, domain.Member{ID: 1, Role: domain.RoleAdmin})

	t.Run("participants require authentication", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/together/42/participants", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("participants lists members with names", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/together/42/participants", userToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body struct {
			Topic        string `json:"topic"`
			Count        int    `json:"count"`
			Participants []struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
			} `json:"participants"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "chat/42", body.Topic)
		assert.Equal(t, 3, body.Count)
		require.Len(t, body.Participants, 3)
		assert.Equal(t, "alice", body.Participants[0].Name)
		assert.Equal(t, "bob", body.Participants[1].Name)
		assert.Equal(t, int64(404), body.Participants[2].ID)
		assert.Empty(t, body.Participants[2].Name)
	})

	t.Run("invalid session id", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/together/abc/participants", userToken)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("kick requires admin", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, "/api/together/42/participants/9", userToken)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, 3, env.hub.Registry().Count(topic))
	})

	t.Run("admin kicks member", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, "/api/together/42/participants/9", adminToken)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, []domain.MemberID{7, 404}, env.hub.Registry().Members(topic))
	})

	t.Run("kicking an absent member is 404", func(t *testing.T) {
		resp := env.do(t, http.MethodDelete, "/api/together/42/participants/9", adminToken)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestSessionCookieOpensWebsocket(t *testing.T) {
	env := setupServer(t)

	t.Run("invalid token", func(t *testing.T) {
		resp, err := http.Post(env.server.URL+"/auth/session", "application/json", strings.NewReader(`{"token":"nope"}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		resp, err := http.Post(env.server.URL+"/auth/session", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	body := `{"token":"` + env.token(t, domain.Member{ID: 7}) + `"}`
	resp, err := http.Post(env.server.URL+"/auth/session", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)
	header := http.Header{}
	for _, c := range cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/ws/together"
	conn, _, err := gorilla.DefaultDialer.DialContext(ctx, url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"action":"subscribe","topic":"chat/8"}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	event, err := together.DecodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, together.KindJoin, event.Kind)
	assert.Equal(t, "alice", event.Name)
	assert.Equal(t, 1, event.Users)

	resp2 := env.do(t, http.MethodGet, "/health", "")
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&health))
	assert.Equal(t, float64(1), health["memberships"])
}

func TestStatusPage(t *testing.T) {
	env := setupServer(t)
	env.hub.Registry().Register(together.ChatTopic(3), 7)

	resp := env.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<td>chat/3</td><td>1</td>")

	resp = env.do(t, http.MethodGet, "/status/topics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), `<div id="topics"`))
}
