package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MessageRepository struct {
	mu       sync.RWMutex
	messages []models.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) CreateMessage(_ context.Context, msg *models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg.ID = primitive.NewObjectID()
	msg.IsRead = false
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *MessageRepository) ListByConversation(_ context.Context, conversationID primitive.ObjectID, pg, limit int) ([]models.Message, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newestFirst []models.Message
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].ConversationID == conversationID {
			newestFirst = append(newestFirst, r.messages[i])
		}
	}
	start, end := page(len(newestFirst), pg, limit)
	window := newestFirst[start:end]

	out := make([]models.Message, 0, len(window))
	for i := len(window) - 1; i >= 0; i-- {
		out = append(out, window[i])
	}
	return out, int64(len(newestFirst)), nil
}

func (r *MessageRepository) MarkConversationRead(_ context.Context, conversationID primitive.ObjectID, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.ConversationID == conversationID && m.SenderID != userID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r *MessageRepository) CountUnreadFromOthers(_ context.Context, userID uint, within []primitive.ObjectID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var allowed map[primitive.ObjectID]bool
	if within != nil {
		allowed = make(map[primitive.ObjectID]bool, len(within))
		for _, id := range within {
			allowed[id] = true
		}
	}

	var n int64
	for _, m := range r.messages {
		if m.SenderID == userID || m.IsRead {
			continue
		}
		if allowed != nil && !allowed[m.ConversationID] {
			continue
		}
		n++
	}
	return n, nil
}

// ByConversation returns every stored message of a conversation in insertion order.
func (r *MessageRepository) ByConversation(conversationID primitive.ObjectID) []models.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Message{}
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}
