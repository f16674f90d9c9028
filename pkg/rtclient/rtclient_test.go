package rtclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/auth"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/anonto42/careerconnect/backend/internal/repositories/memstore"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func envelope(t *testing.T, event string, payload interface{}) realtime.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return realtime.Envelope{Event: event, Data: data}
}

func TestStorePrependsPostsOnce(t *testing.T) {
	s := NewStore()
	first := models.PostView{Post: models.Post{ID: primitive.NewObjectID(), Content: "first"}}
	second := models.PostView{Post: models.Post{ID: primitive.NewObjectID(), Content: "second"}}

	require.NoError(t, s.Apply(envelope(t, realtime.EventPostCreated, first)))
	require.NoError(t, s.Apply(envelope(t, realtime.EventPostCreated, second)))
	require.NoError(t, s.Apply(envelope(t, realtime.EventPostCreated, first)))

	feed := s.Feed()
	require.Len(t, feed, 2)
	assert.Equal(t, "second", feed[0].Content)
	assert.Equal(t, "first", feed[1].Content)
}

func TestStoreUpsertsConversations(t *testing.T) {
	s := NewStore()
	a := models.ConversationView{ID: primitive.NewObjectID(), UnreadCount: map[string]int{"2": 1}}
	b := models.ConversationView{ID: primitive.NewObjectID()}
	s.ReplaceConversations([]models.ConversationView{a, b})

	a.UnreadCount = map[string]int{"2": 2}
	require.NoError(t, s.Apply(envelope(t, realtime.EventConversationUpdated, a)))
	c := models.ConversationView{ID: primitive.NewObjectID()}
	require.NoError(t, s.Apply(envelope(t, realtime.EventConversationUpdated, c)))

	convs := s.Conversations()
	require.Len(t, convs, 3)
	assert.Equal(t, c.ID, convs[0].ID)
	assert.Equal(t, a.ID, convs[1].ID, "existing conversation is updated in place")
	assert.Equal(t, 2, convs[1].UnreadCount["2"])
	assert.Equal(t, b.ID, convs[2].ID)
}

func TestStoreReplacesSummaryAndIgnoresUnknownEvents(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Apply(envelope(t, realtime.EventUnreadSummary, models.NewUnreadSummary(3, 4))))
	require.NoError(t, s.Apply(envelope(t, realtime.EventUnreadSummary, models.NewUnreadSummary(0, 1))))
	assert.Equal(t, models.UnreadSummary{Messages: 0, Notifications: 1, Total: 1}, s.Summary())

	require.NoError(t, s.Apply(envelope(t, "presence:changed", map[string]bool{"online": true})))
	assert.Error(t, s.Apply(realtime.Envelope{Event: realtime.EventUnreadSummary, Data: json.RawMessage(`"nope"`)}))
}

type liveServer struct {
	url     string
	gateway *realtime.Gateway
	store   *memstore.Store
	tokens  *auth.TokenManager
}

func newLiveServer(t *testing.T) *liveServer {
	t.Helper()
	store := memstore.New()
	tokens := auth.NewTokenManager("rtclient-secret", time.Hour)
	gateway := realtime.NewGateway(nil)
	gateway.Init()

	e := echo.New()
	e.GET("/ws", realtime.NewHandler(gateway, auth.NewAuthenticator(tokens, store.Users), store.Conversations, nil, nil).Serve)
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		gateway.Shutdown()
		srv.Close()
	})
	return &liveServer{
		url:     "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
		gateway: gateway,
		store:   store,
		tokens:  tokens,
	}
}

func (s *liveServer) user(t *testing.T, name string) (*models.User, string) {
	t.Helper()
	u := &models.User{Name: name, Email: strings.ToLower(name) + "@example.com"}
	require.NoError(t, s.store.Users.CreateUser(context.Background(), u))
	token, err := s.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func staticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

func runClient(t *testing.T, c *Client) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("client did not stop")
		}
	})
	return done
}

func TestClientAppliesPushedEvents(t *testing.T) {
	srv := newLiveServer(t)
	alice, token := srv.user(t, "Alice")
	bob, _ := srv.user(t, "Bob")

	conv, err := srv.store.Conversations.FindOrCreateDirect(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	client := New(Options{URL: srv.url, Token: staticToken(token)}, nil)
	runClient(t, client)

	require.Eventually(t, func() bool { return srv.gateway.RoomSize(realtime.UserRoom(alice.ID)) == 1 }, 2*time.Second, 10*time.Millisecond)

	post := models.PostView{Post: models.Post{ID: primitive.NewObjectID(), Content: "open roles"}}
	srv.gateway.Broadcast(realtime.EventPostCreated, post)
	srv.gateway.Broadcast(realtime.EventPostCreated, post)
	srv.gateway.EmitToUser(alice.ID, realtime.EventUnreadSummary, models.NewUnreadSummary(2, 1))

	require.Eventually(t, func() bool { return client.Store().Summary().Total == 3 }, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, client.Store().Feed(), 1)

	require.NoError(t, client.Join(conv.ID.Hex()))
	room := realtime.ConversationRoom(conv.ID.Hex())
	require.Eventually(t, func() bool { return srv.gateway.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	msg := models.MessageView{ID: primitive.NewObjectID(), ConversationID: conv.ID, Content: "hi"}
	srv.gateway.EmitToConversation(conv.ID.Hex(), realtime.EventConversationNewMessage, msg)
	require.Eventually(t, func() bool { return len(client.Store().Messages(conv.ID)) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Leave(conv.ID.Hex()))
	require.Eventually(t, func() bool { return srv.gateway.RoomSize(room) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientReconnectsAndRejoins(t *testing.T) {
	srv := newLiveServer(t)
	alice, token := srv.user(t, "Alice")
	bob, _ := srv.user(t, "Bob")
	conv, err := srv.store.Conversations.FindOrCreateDirect(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	var fetches, reconnects int32
	client := New(Options{
		URL: srv.url,
		Token: func(context.Context) (string, error) {
			atomic.AddInt32(&fetches, 1)
			return token, nil
		},
		MaxAttempts: 20,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
		OnReconnect: func(context.Context) { atomic.AddInt32(&reconnects, 1) },
	}, nil)
	runClient(t, client)

	room := realtime.ConversationRoom(conv.ID.Hex())
	require.Eventually(t, func() bool { return srv.gateway.RoomSize(realtime.UserRoom(alice.ID)) == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, client.Join(conv.ID.Hex()))
	require.Eventually(t, func() bool { return srv.gateway.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)

	srv.gateway.Shutdown()
	srv.gateway.Init()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&reconnects) == 1 }, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return srv.gateway.RoomSize(room) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&fetches), int32(2), "token is fetched again for every dial")
}

func TestClientStopsWithoutCredential(t *testing.T) {
	srv := newLiveServer(t)
	client := New(Options{URL: srv.url, Token: staticToken("")}, nil)

	err := client.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoCredential))
}

func TestClientGivesUpAfterBoundedAttempts(t *testing.T) {
	srv := newLiveServer(t)

	var fetches int32
	client := New(Options{
		URL: srv.url,
		Token: func(context.Context) (string, error) {
			atomic.AddInt32(&fetches, 1)
			return "forged-token", nil
		},
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}, nil)

	err := client.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGaveUp))
	assert.Equal(t, int32(3), atomic.LoadInt32(&fetches))
}

func TestClientClosesWhenCredentialDisappears(t *testing.T) {
	srv := newLiveServer(t)
	alice, token := srv.user(t, "Alice")

	var current atomic.Value
	current.Store(token)
	client := New(Options{
		URL:             srv.url,
		Token:           func(context.Context) (string, error) { return current.Load().(string), nil },
		CredentialCheck: 10 * time.Millisecond,
	}, nil)

	done := make(chan error, 1)
	go func() { done <- client.Run(context.Background()) }()

	require.Eventually(t, func() bool { return srv.gateway.RoomSize(realtime.UserRoom(alice.ID)) == 1 }, 2*time.Second, 10*time.Millisecond)

	current.Store("")

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrNoCredential))
	case <-time.After(2 * time.Second):
		t.Fatal("client kept the connection open without a credential")
	}
	require.Eventually(t, func() bool { return srv.gateway.RoomSize(realtime.UserRoom(alice.ID)) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClientLogoutClosesConnection(t *testing.T) {
	srv := newLiveServer(t)
	alice, token := srv.user(t, "Alice")
	client := New(Options{URL: srv.url, Token: staticToken(token)}, nil)

	done := make(chan error, 1)
	go func() { done <- client.Run(context.Background()) }()

	require.Eventually(t, func() bool { return srv.gateway.RoomSize(realtime.UserRoom(alice.ID)) == 1 }, 2*time.Second, 10*time.Millisecond)

	client.Logout()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, ErrNoCredential))
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Logout")
	}
	require.Eventually(t, func() bool { return srv.gateway.RoomSize(realtime.UserRoom(alice.ID)) == 0 }, 2*time.Second, 10*time.Millisecond)
}
