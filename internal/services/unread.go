package services

import (
	"context"
	"fmt"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnreadScope selects which messages count toward the unread total
type UnreadScope string

const (
	// ScopeGlobal counts every unread message sent by someone else, in any conversation.
	ScopeGlobal UnreadScope = "global"
	// ScopeParticipant counts only messages in conversations the user belongs to.
	ScopeParticipant UnreadScope = "participant"
)

func ParseUnreadScope(s string) (UnreadScope, error) {
	switch UnreadScope(s) {
	case "", ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeParticipant:
		return ScopeParticipant, nil
	default:
		return "", fmt.Errorf("unknown unread scope %q", s)
	}
}

// UnreadService derives unread counts from messages and notifications on every call.
// It never reads the per-conversation counters.
type UnreadService struct {
	messages      repositories.MessageRepository
	notifications repositories.NotificationRepository
	conversations repositories.ConversationRepository
	scope         UnreadScope
}

func NewUnreadService(messages repositories.MessageRepository, notifications repositories.NotificationRepository, conversations repositories.ConversationRepository, scope UnreadScope) *UnreadService {
	if scope == "" {
		scope = ScopeGlobal
	}
	return &UnreadService{
		messages:      messages,
		notifications: notifications,
		conversations: conversations,
		scope:         scope,
	}
}

func (s *UnreadService) Summary(ctx context.Context, userID uint) (models.UnreadSummary, error) {
	var within []primitive.ObjectID
	if s.scope == ScopeParticipant {
		ids, err := s.conversations.ListIDsByParticipant(ctx, userID)
		if err != nil {
			return models.UnreadSummary{}, fmt.Errorf("list conversations: %w", err)
		}
		within = ids
	}

	messages, err := s.messages.CountUnreadFromOthers(ctx, userID, within)
	if err != nil {
		return models.UnreadSummary{}, fmt.Errorf("count unread messages: %w", err)
	}
	notifications, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return models.UnreadSummary{}, fmt.Errorf("count unread notifications: %w", err)
	}
	return models.NewUnreadSummary(messages, notifications), nil
}
