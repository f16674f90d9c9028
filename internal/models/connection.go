package models

import "gorm.io/gorm"

// Connection request statuses
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
)

// ConnectionRequest is a request to connect two members. An accepted request is the connection itself.
type ConnectionRequest struct {
	gorm.Model
	SenderID   uint   `json:"sender_id" gorm:"index"`
	ReceiverID uint   `json:"receiver_id" gorm:"index"`
	Status     string `json:"status" gorm:"type:varchar(20);default:'pending'"`
}

type CreateConnectionRequest struct {
	ReceiverID uint `json:"receiver_id" validate:"required"`
}

type UpdateConnectionRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}
