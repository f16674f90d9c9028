package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/auth"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// BearerSubprotocol is offered next to the token in Sec-WebSocket-Protocol: "bearer, <token>".
const BearerSubprotocol = "bearer"

const joinLookupTimeout = 5 * time.Second

// Authenticator resolves a bearer token to a caller
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// ConversationLookup is the read the join check needs
type ConversationLookup interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
}

// Handler upgrades authenticated requests and runs the inbound frame loop
type Handler struct {
	gateway       *Gateway
	authn         Authenticator
	conversations ConversationLookup
	upgrader      websocket.Upgrader
	logger        *zap.Logger
}

// NewHandler builds the socket endpoint. An empty allowedOrigins or a "*" entry accepts any origin.
func NewHandler(gateway *Gateway, authn Authenticator, conversations ConversationLookup, allowedOrigins []string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		gateway:       gateway,
		authn:         authn,
		conversations: conversations,
		logger:        logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{BearerSubprotocol},
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Serve is mounted on GET /ws. Credentials are looked up in the subprotocol header,
// then the Authorization header, then the token query parameter.
func (h *Handler) Serve(c echo.Context) error {
	req := c.Request()

	identity, err := h.authn.Authenticate(req.Context(), credential(req))
	if err != nil {
		h.logger.Debug("socket handshake rejected", zap.String("remote_ip", c.RealIP()), zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	}
	if !h.gateway.Ready() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Realtime gateway unavailable")
	}

	ws, err := h.upgrader.Upgrade(c.Response(), req, nil)
	if err != nil {
		// the upgrader already wrote the HTTP error
		h.logger.Debug("socket upgrade failed", zap.Error(err))
		return nil
	}

	conn := NewConnection(identity.UserID, ws)
	if err := h.gateway.Attach(conn); err != nil {
		conn.Close(websocket.CloseTryAgainLater, "gateway unavailable")
		return nil
	}
	defer func() {
		h.gateway.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "")
	}()

	h.readLoop(conn, identity)
	return nil
}

func (h *Handler) readLoop(conn *Connection, identity auth.Identity) {
	conn.prepareRead()
	for {
		data, err := conn.read()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("socket read ended", zap.String("connection_id", conn.ID), zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Debug("ignoring malformed frame", zap.String("connection_id", conn.ID))
			continue
		}

		switch env.Event {
		case EventConversationJoin:
			h.join(conn, identity, env.Data)
		case EventConversationLeave:
			if id, ok := conversationIDFrom(env.Data); ok {
				h.gateway.Leave(ConversationRoom(canonicalID(id)), conn)
			}
		default:
			h.logger.Debug("ignoring unknown event", zap.String("event", env.Event))
		}
	}
}

// join grants the room only to participants of an existing conversation.
// Refusals are logged and never reported back to the client.
func (h *Handler) join(conn *Connection, identity auth.Identity, data json.RawMessage) {
	id, ok := conversationIDFrom(data)
	if !ok {
		h.logger.Debug("join refused: malformed conversation id", zap.Uint("user_id", identity.UserID))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), joinLookupTimeout)
	defer cancel()

	conv, err := h.conversations.GetByID(ctx, id)
	if err != nil {
		h.logger.Debug("join refused", zap.Uint("user_id", identity.UserID), zap.String("conversation_id", id), zap.Error(err))
		return
	}
	if !conv.HasParticipant(identity.UserID) {
		h.logger.Debug("join refused: not a participant", zap.Uint("user_id", identity.UserID), zap.String("conversation_id", id))
		return
	}

	h.gateway.Join(ConversationRoom(conv.ID.Hex()), conn)
}

func conversationIDFrom(data json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", false
	}
	id = strings.TrimSpace(id)
	return id, id != ""
}

// canonicalID lower-cases a valid hex id so it names the same room emission uses.
func canonicalID(id string) string {
	if objID, err := repositories.ParseObjectID(id); err == nil {
		return objID.Hex()
	}
	return id
}

func credential(r *http.Request) string {
	if token := subprotocolToken(r); token != "" {
		return token
	}
	if token, ok := auth.BearerToken(r.Header.Get("Authorization")); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

func subprotocolToken(r *http.Request) string {
	protocols := websocket.Subprotocols(r)
	for i, p := range protocols {
		if p == BearerSubprotocol && i+1 < len(protocols) {
			return protocols[i+1]
		}
	}
	return ""
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(origin, "/")] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
