// Package realtime is the push side of the API: authenticated websocket connections grouped
// into named rooms, one personal room per user and one room per subscribed conversation.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Server to client events
const (
	EventPostCreated            = "post:created"
	EventConversationNewMessage = "conversation:new-message"
	EventConversationUpdated    = "conversation:updated"
	EventUnreadSummary          = "unread:summary"
)

// Client to server events
const (
	EventConversationJoin  = "conversation:join"
	EventConversationLeave = "conversation:leave"
)

// Envelope is the frame exchanged in both directions
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

func encode(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: payload})
}

// UserRoom is the personal room every connection of a user joins at handshake.
func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func ConversationRoom(conversationID string) string {
	return "conversation:" + conversationID
}
