package models

import (
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a message thread between two or more members (MongoDB).
// UnreadCount is keyed by the decimal user id of a participant.
type Conversation struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Participants []uint             `json:"participants" bson:"participants"`
	PairKey      string             `json:"-" bson:"pair_key,omitempty"`
	LastMessage  *LastMessage       `json:"last_message,omitempty" bson:"last_message,omitempty"`
	UnreadCount  map[string]int     `json:"unread_count" bson:"unread_count"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// LastMessage is the preview shown in conversation lists
type LastMessage struct {
	Content  string    `json:"content" bson:"content"`
	SenderID uint      `json:"sender" bson:"sender"`
	SentAt   time.Time `json:"sent_at" bson:"sent_at"`
}

// UserKey is the unread_count map key for a user.
func UserKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// DirectPairKey identifies the direct conversation of an unordered pair of users.
func DirectPairKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

func (c *Conversation) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except userID, in stored order.
func (c *Conversation) OtherParticipants(userID uint) []uint {
	others := make([]uint, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != userID {
			others = append(others, p)
		}
	}
	return others
}

func (c *Conversation) UnreadFor(userID uint) int {
	return c.UnreadCount[UserKey(userID)]
}
