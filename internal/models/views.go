package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnreadSummary is derived on demand, never stored.
type UnreadSummary struct {
	Messages      int64 `json:"messages"`
	Notifications int64 `json:"notifications"`
	Total         int64 `json:"total"`
}

func NewUnreadSummary(messages, notifications int64) UnreadSummary {
	return UnreadSummary{Messages: messages, Notifications: notifications, Total: messages + notifications}
}

// MessageView is a message with its sender resolved
type MessageView struct {
	ID             primitive.ObjectID `json:"id"`
	ConversationID primitive.ObjectID `json:"conversation_id"`
	Sender         UserSummary        `json:"sender"`
	Content        string             `json:"content"`
	AttachmentURL  string             `json:"attachment_url,omitempty"`
	IsRead         bool               `json:"is_read"`
	CreatedAt      time.Time          `json:"created_at"`
}

func NewMessageView(m Message, sender UserSummary) MessageView {
	return MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Content:        m.Content,
		AttachmentURL:  m.AttachmentURL,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}

// ConversationView is a conversation with participants resolved to display summaries
type ConversationView struct {
	ID           primitive.ObjectID `json:"id"`
	Participants []UserSummary      `json:"participants"`
	LastMessage  *LastMessage       `json:"last_message,omitempty"`
	UnreadCount  map[string]int     `json:"unread_count"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// NewConversationView resolves participants from users; unknown ids keep only their id.
func NewConversationView(c Conversation, users map[uint]UserSummary) ConversationView {
	participants := make([]UserSummary, len(c.Participants))
	for i, id := range c.Participants {
		if u, ok := users[id]; ok {
			participants[i] = u
		} else {
			participants[i] = UserSummary{ID: id}
		}
	}
	unread := make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		unread[k] = v
	}
	return ConversationView{
		ID:           c.ID,
		Participants: participants,
		LastMessage:  c.LastMessage,
		UnreadCount:  unread,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

// NotificationView is a notification with its actor resolved
type NotificationView struct {
	Notification
	Actor UserSummary `json:"actor"`
}

// MessagePage is one page of a conversation, oldest message first
type MessagePage struct {
	Data  []MessageView `json:"data"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}

// NotificationPage is one page of notifications, newest first
type NotificationPage struct {
	Data  []NotificationView `json:"data"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int64              `json:"total"`
}
