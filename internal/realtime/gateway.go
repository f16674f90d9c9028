package realtime

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var ErrGatewayClosed = errors.New("gateway not initialized")

// Gateway is the in-process room registry. Rooms live only in this process; a second
// server instance has its own, unrelated registry.
type Gateway struct {
	logger *zap.Logger

	mu        sync.RWMutex
	ready     bool
	conns     map[string]*Connection
	rooms     map[string]map[string]*Connection // room -> connection id -> connection
	connRooms map[string]map[string]struct{}    // connection id -> rooms
}

func NewGateway(logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{logger: logger}
}

// Init prepares an empty registry. Emissions before Init are dropped.
func (g *Gateway) Init() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ready {
		return
	}
	g.conns = make(map[string]*Connection)
	g.rooms = make(map[string]map[string]*Connection)
	g.connRooms = make(map[string]map[string]struct{})
	g.ready = true
	g.logger.Info("realtime gateway initialized")
}

// Shutdown closes every connection and returns the gateway to the uninitialized state.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	if !g.ready {
		g.mu.Unlock()
		return
	}
	conns := make([]*Connection, 0, len(g.conns))
	for _, conn := range g.conns {
		conns = append(conns, conn)
	}
	g.conns, g.rooms, g.connRooms = nil, nil, nil
	g.ready = false
	g.mu.Unlock()

	for _, conn := range conns {
		conn.Close(websocket.CloseGoingAway, "server shutting down")
	}
	g.logger.Info("realtime gateway shut down", zap.Int("connections_closed", len(conns)))
}

func (g *Gateway) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ready
}

// Attach registers conn, joins it to its user's personal room and starts its write loop.
// A user may hold several connections at once.
func (g *Gateway) Attach(conn *Connection) error {
	g.mu.Lock()
	if !g.ready {
		g.mu.Unlock()
		return ErrGatewayClosed
	}
	g.conns[conn.ID] = conn
	g.connRooms[conn.ID] = make(map[string]struct{})
	g.joinLocked(UserRoom(conn.UserID), conn)
	g.mu.Unlock()

	conn.start()
	g.logger.Debug("connection attached", zap.String("connection_id", conn.ID), zap.Uint("user_id", conn.UserID))
	return nil
}

// Detach removes conn from every room it is in. Unknown connections are ignored.
func (g *Gateway) Detach(conn *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready {
		return
	}
	if _, ok := g.conns[conn.ID]; !ok {
		return
	}
	for room := range g.connRooms[conn.ID] {
		g.leaveLocked(room, conn.ID)
	}
	delete(g.connRooms, conn.ID)
	delete(g.conns, conn.ID)
	g.logger.Debug("connection detached", zap.String("connection_id", conn.ID), zap.Uint("user_id", conn.UserID))
}

// Join adds an attached connection to room. Authorization is the caller's job.
func (g *Gateway) Join(room string, conn *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready {
		return
	}
	if _, ok := g.conns[conn.ID]; !ok {
		return
	}
	g.joinLocked(room, conn)
}

func (g *Gateway) Leave(room string, conn *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.ready {
		return
	}
	g.leaveLocked(room, conn.ID)
}

// EmitToUser delivers to every open connection of the user.
func (g *Gateway) EmitToUser(userID uint, event string, payload interface{}) {
	g.emit(UserRoom(userID), event, payload)
}

func (g *Gateway) EmitToConversation(conversationID string, event string, payload interface{}) {
	g.emit(ConversationRoom(conversationID), event, payload)
}

// Broadcast delivers to every connection regardless of room.
func (g *Gateway) Broadcast(event string, payload interface{}) {
	g.mu.RLock()
	if !g.ready || len(g.conns) == 0 {
		g.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(g.conns))
	for _, conn := range g.conns {
		targets = append(targets, conn)
	}
	g.mu.RUnlock()

	g.deliver(targets, "*", event, payload)
}

// RoomSize reports how many connections are in room.
func (g *Gateway) RoomSize(room string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms[room])
}

func (g *Gateway) emit(room, event string, payload interface{}) {
	g.mu.RLock()
	if !g.ready {
		g.mu.RUnlock()
		return
	}
	members := g.rooms[room]
	if len(members) == 0 {
		g.mu.RUnlock()
		return
	}
	targets := make([]*Connection, 0, len(members))
	for _, conn := range members {
		targets = append(targets, conn)
	}
	g.mu.RUnlock()

	g.deliver(targets, room, event, payload)
}

func (g *Gateway) deliver(targets []*Connection, room, event string, payload interface{}) {
	frame, err := encode(event, payload)
	if err != nil {
		g.logger.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return
	}
	for _, conn := range targets {
		if err := conn.Send(frame); err != nil {
			g.logger.Warn("dropped event",
				zap.String("event", event),
				zap.String("room", room),
				zap.String("connection_id", conn.ID),
				zap.Error(err),
			)
		}
	}
}

func (g *Gateway) joinLocked(room string, conn *Connection) {
	members := g.rooms[room]
	if members == nil {
		members = make(map[string]*Connection)
		g.rooms[room] = members
	}
	members[conn.ID] = conn
	g.connRooms[conn.ID][room] = struct{}{}
}

func (g *Gateway) leaveLocked(room, connID string) {
	if members := g.rooms[room]; members != nil {
		delete(members, connID)
		if len(members) == 0 {
			delete(g.rooms, room)
		}
	}
	if joined := g.connRooms[connID]; joined != nil {
		delete(joined, room)
	}
}
