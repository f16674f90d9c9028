package models

import (
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrEmptyMessage = errors.New("content or attachment required")

// Message belongs to exactly one conversation. Only IsRead changes after creation.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID `json:"conversation_id" bson:"conversation_id"`
	SenderID       uint               `json:"sender" bson:"sender"`
	Content        string             `json:"content" bson:"content"`
	AttachmentURL  string             `json:"attachment_url,omitempty" bson:"attachment_url,omitempty"`
	IsRead         bool               `json:"is_read" bson:"is_read"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// Validate requires non-blank content or a non-blank attachment.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.Content) == "" && strings.TrimSpace(m.AttachmentURL) == "" {
		return ErrEmptyMessage
	}
	return nil
}

type SendMessageRequest struct {
	Content       string `json:"content" validate:"max=5000"`
	AttachmentURL string `json:"attachment_url" validate:"max=2048"`
}
