// Package rtclient is a Go consumer of the /ws push channel. It keeps a Store in sync
// with the events it receives and reconnects with bounded exponential backoff.
package rtclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrNoCredential is returned by Run when the token source yields an empty token.
	ErrNoCredential = errors.New("rtclient: no credential")
	// ErrGaveUp is returned by Run after MaxAttempts consecutive failed dials.
	ErrGaveUp = errors.New("rtclient: reconnect attempts exhausted")
)

// TokenSource is asked for a fresh bearer token before every dial.
type TokenSource func(ctx context.Context) (string, error)

type Options struct {
	URL   string
	Token TokenSource

	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// CredentialCheck polls Token while connected; an empty token closes the connection
	// and Run returns ErrNoCredential. Zero disables polling.
	CredentialCheck time.Duration

	// OnReconnect runs after every successful dial except the first; use it to refetch the
	// HTTP listings, since nothing missed while offline is replayed.
	OnReconnect func(ctx context.Context)
	// OnEvent sees every envelope after the Store has applied it.
	OnEvent func(env realtime.Envelope)

	Dialer *websocket.Dialer
	Logger *zap.Logger
}

type Client struct {
	opts  Options
	store *Store

	mu        sync.Mutex
	conn      *websocket.Conn
	rooms     map[string]bool
	loggedOut bool
}

func New(opts Options, store *Store) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if store == nil {
		store = NewStore()
	}
	return &Client{opts: opts, store: store, rooms: make(map[string]bool)}
}

func (c *Client) Store() *Store {
	return c.store
}

// Run keeps one connection open until ctx is cancelled, the token source comes back
// empty, Logout is called, or MaxAttempts dials in a row fail.
func (c *Client) Run(ctx context.Context) error {
	failures := 0
	connected := false

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.isLoggedOut() {
			return ErrNoCredential
		}

		conn, err := c.dial(ctx)
		if errors.Is(err, ErrNoCredential) {
			return err
		}
		if err != nil {
			failures++
			c.opts.Logger.Warn("realtime dial failed", zap.Int("attempt", failures), zap.Error(err))
			if failures >= c.opts.MaxAttempts {
				return fmt.Errorf("%w: %v", ErrGaveUp, err)
			}
			if err := c.wait(ctx, failures); err != nil {
				return err
			}
			continue
		}

		if c.isLoggedOut() {
			_ = conn.Close()
			return ErrNoCredential
		}
		failures = 0
		if connected && c.opts.OnReconnect != nil {
			c.opts.OnReconnect(ctx)
		}
		connected = true

		c.attach(conn)
		err = c.readLoop(ctx, conn)
		c.detach(conn)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.isLoggedOut() {
			c.opts.Logger.Info("realtime credential removed, closing")
			return ErrNoCredential
		}
		c.opts.Logger.Info("realtime connection lost", zap.Error(err))
	}
}

// Logout closes the open connection and makes Run return ErrNoCredential.
func (c *Client) Logout() {
	c.mu.Lock()
	c.loggedOut = true
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "logout"), time.Now().Add(time.Second))
		_ = conn.Close()
	}
}

func (c *Client) isLoggedOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedOut
}

// watchCredential logs out once the token source comes back empty.
func (c *Client) watchCredential(ctx context.Context) {
	ticker := time.NewTicker(c.opts.CredentialCheck)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			token, err := c.opts.Token(ctx)
			if err != nil {
				c.opts.Logger.Debug("credential check failed", zap.Error(err))
				continue
			}
			if token == "" {
				c.Logout()
				return
			}
		}
	}
}

// Join subscribes to a conversation room now and after every reconnect.
func (c *Client) Join(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[conversationID] = true
	return c.writeLocked(realtime.EventConversationJoin, conversationID)
}

// Leave drops the subscription; the server honors it unconditionally.
func (c *Client) Leave(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, conversationID)
	return c.writeLocked(realtime.EventConversationLeave, conversationID)
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	token, err := c.opts.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch token: %w", err)
	}
	if token == "" {
		return nil, ErrNoCredential
	}

	dialer := *c.opts.Dialer
	dialer.Subprotocols = []string{realtime.BearerSubprotocol, token}

	conn, resp, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("handshake rejected: %w", err)
		}
		return nil, err
	}
	return conn, nil
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	delay := c.opts.BaseDelay << uint(attempt-1)
	if delay > c.opts.MaxDelay || delay <= 0 {
		delay = c.opts.MaxDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// attach installs conn and re-joins the remembered conversation rooms.
func (c *Client) attach(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn = conn
	for room := range c.rooms {
		if err := c.writeLocked(realtime.EventConversationJoin, room); err != nil {
			c.opts.Logger.Warn("rejoin failed", zap.String("conversation_id", room), zap.Error(err))
		}
	}
}

func (c *Client) detach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	if c.opts.CredentialCheck > 0 {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go c.watchCredential(watchCtx)
	}

	for {
		var env realtime.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		if err := c.store.Apply(env); err != nil {
			c.opts.Logger.Warn("dropping malformed event", zap.String("event", env.Event), zap.Error(err))
			continue
		}
		if c.opts.OnEvent != nil {
			c.opts.OnEvent(env)
		}
	}
}

// writeLocked sends a frame when connected; offline writes are dropped and the room is
// picked up by the next attach. Callers hold c.mu.
func (c *Client) writeLocked(event, conversationID string) error {
	if c.conn == nil {
		return nil
	}
	data, err := json.Marshal(conversationID)
	if err != nil {
		return err
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(realtime.Envelope{Event: event, Data: data})
}
