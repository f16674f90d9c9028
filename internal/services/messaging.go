package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/apperr"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"go.uber.org/zap"
)

const messagePreviewLength = 120

type MessagingService struct {
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	notifications *NotificationService
	emitter       Emitter
	logger        *zap.Logger
}

func NewMessagingService(
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	notifications *NotificationService,
	emitter Emitter,
	logger *zap.Logger,
) *MessagingService {
	return &MessagingService{
		conversations: conversations,
		messages:      messages,
		users:         users,
		notifications: notifications,
		emitter:       emitter,
		logger:        logger,
	}
}

// ListConversations returns the caller's conversations, most recently updated first.
func (s *MessagingService) ListConversations(ctx context.Context, userID uint) ([]models.ConversationView, error) {
	convs, err := s.conversations.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}

	var ids []uint
	for _, c := range convs {
		ids = append(ids, c.Participants...)
	}
	users, err := summaries(ctx, s.users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ConversationView, 0, len(convs))
	for _, c := range convs {
		views = append(views, models.NewConversationView(c, users))
	}
	return views, nil
}

// GetOrCreateDirect returns the one conversation between the caller and targetID.
func (s *MessagingService) GetOrCreateDirect(ctx context.Context, callerID, targetID uint) (*models.ConversationView, error) {
	if targetID == 0 {
		return nil, apperr.Validation("Invalid user id")
	}
	if targetID == callerID {
		return nil, apperr.Validation("Cannot start a conversation with yourself")
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return nil, lookupError(err, "User")
	}

	conv, err := s.conversations.FindOrCreateDirect(ctx, callerID, targetID)
	if err != nil {
		return nil, err
	}
	view, err := s.view(ctx, conv)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// ListMessages returns one page of a conversation the caller belongs to.
func (s *MessagingService) ListMessages(ctx context.Context, userID uint, conversationID string, page, limit int) (*models.MessagePage, error) {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	page, limit = NormalizePage(page, limit)
	msgs, total, err := s.messages.ListByConversation(ctx, conv.ID, page, limit)
	if err != nil {
		return nil, err
	}

	senders, err := summaries(ctx, s.users, conv.Participants)
	if err != nil {
		return nil, err
	}
	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, models.NewMessageView(m, summaryOf(senders, m.SenderID)))
	}
	return &models.MessagePage{Data: views, Page: page, Limit: limit, Total: total}, nil
}

// SendMessage stores a message and fans out its side effects. Only the message write and
// the conversation update can fail the call; notifications and pushes are best effort.
func (s *MessagingService) SendMessage(ctx context.Context, senderID uint, conversationID string, req models.SendMessageRequest) (*models.MessageView, error) {
	msg := &models.Message{
		SenderID:      senderID,
		Content:       strings.TrimSpace(req.Content),
		AttachmentURL: strings.TrimSpace(req.AttachmentURL),
	}
	if err := msg.Validate(); err != nil {
		return nil, apperr.Validation("content or attachment required")
	}

	conv, err := s.participantConversation(ctx, senderID, conversationID)
	if err != nil {
		return nil, err
	}

	msg.ConversationID = conv.ID
	msg.CreatedAt = time.Now().UTC()
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		if errors.Is(err, models.ErrEmptyMessage) {
			return nil, apperr.Validation("content or attachment required")
		}
		return nil, fmt.Errorf("create message: %w", err)
	}

	recipients := conv.OtherParticipants(senderID)
	last := models.LastMessage{Content: preview(msg), SenderID: senderID, SentAt: msg.CreatedAt}
	updated, err := s.conversations.RecordMessage(ctx, conv.ID, last, recipients)
	if err != nil {
		return nil, fmt.Errorf("record message on conversation: %w", err)
	}

	users, err := summaries(ctx, s.users, updated.Participants)
	if err != nil {
		s.logger.Warn("failed to resolve participants", zap.String("conversation_id", conversationID), zap.Error(err))
		users = map[uint]models.UserSummary{}
	}
	sender := summaryOf(users, senderID)
	view := models.NewMessageView(*msg, sender)

	convID := conv.ID.Hex()
	for _, recipientID := range recipients {
		n := &models.Notification{
			RecipientID: recipientID,
			ActorID:     senderID,
			Type:        models.NotificationMessage,
			Content:     messageNotificationText(sender),
			RelatedID:   convID,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			s.logger.Error("failed to create message notification",
				zap.Uint("recipient_id", recipientID),
				zap.String("conversation_id", convID),
				zap.Error(err),
			)
		}
	}

	s.emitter.EmitToConversation(convID, realtime.EventConversationNewMessage, view)

	convView := models.NewConversationView(*updated, users)
	for _, recipientID := range recipients {
		s.emitter.EmitToUser(recipientID, realtime.EventConversationUpdated, convView)
		s.notifications.PushSummary(ctx, recipientID)
	}
	s.emitter.EmitToUser(senderID, realtime.EventConversationUpdated, convView)

	return &view, nil
}

// MarkConversationRead flags the conversation's incoming messages as read for userID and
// resets their counter.
func (s *MessagingService) MarkConversationRead(ctx context.Context, userID uint, conversationID string) error {
	conv, err := s.participantConversation(ctx, userID, conversationID)
	if err != nil {
		return err
	}

	if _, err := s.messages.MarkConversationRead(ctx, conv.ID, userID); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	updated, err := s.conversations.ResetUnread(ctx, conv.ID, userID)
	if err != nil {
		return fmt.Errorf("reset unread counter: %w", err)
	}

	s.notifications.PushSummary(ctx, userID)
	view, err := s.view(ctx, updated)
	if err != nil {
		s.logger.Warn("failed to resolve participants", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil
	}
	s.emitter.EmitToUser(userID, realtime.EventConversationUpdated, view)
	return nil
}

func (s *MessagingService) participantConversation(ctx context.Context, userID uint, conversationID string) (*models.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, lookupError(err, "Conversation")
	}
	if !conv.HasParticipant(userID) {
		return nil, apperr.Forbidden("Not a participant of this conversation")
	}
	return conv, nil
}

func (s *MessagingService) view(ctx context.Context, conv *models.Conversation) (models.ConversationView, error) {
	users, err := summaries(ctx, s.users, conv.Participants)
	if err != nil {
		return models.ConversationView{}, err
	}
	return models.NewConversationView(*conv, users), nil
}

func preview(m *models.Message) string {
	if m.Content == "" {
		return "Sent an attachment"
	}
	runes := []rune(m.Content)
	if len(runes) > messagePreviewLength {
		return string(runes[:messagePreviewLength]) + "…"
	}
	return m.Content
}

func messageNotificationText(sender models.UserSummary) string {
	if sender.Name == "" {
		return "You have a new message"
	}
	return sender.Name + " sent you a message"
}
