package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationMessage            = "message"
	NotificationConnectionRequest  = "connection_request"
	NotificationConnectionAccepted = "connection_accepted"
	NotificationPostLike           = "post_like"
	NotificationPostComment        = "post_comment"
	NotificationEndorsement        = "endorsement"
	NotificationOpportunity        = "opportunity"
	NotificationSystem             = "system"
)

var notificationTypes = map[string]bool{
	NotificationMessage:            true,
	NotificationConnectionRequest:  true,
	NotificationConnectionAccepted: true,
	NotificationPostLike:           true,
	NotificationPostComment:        true,
	NotificationEndorsement:        true,
	NotificationOpportunity:        true,
	NotificationSystem:             true,
}

func IsValidNotificationType(t string) bool {
	return notificationTypes[t]
}

// Notification is a fan-out record created as a side effect of another action (MongoDB)
type Notification struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RecipientID uint               `json:"recipient" bson:"recipient"`
	ActorID     uint               `json:"actor_id" bson:"actor"`
	Type        string             `json:"type" bson:"type"`
	Content     string             `json:"content" bson:"content"`
	RelatedID   string             `json:"related_id,omitempty" bson:"related_id,omitempty"`
	IsRead      bool               `json:"is_read" bson:"is_read"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
