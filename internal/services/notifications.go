package services

import (
	"context"
	"errors"

	"github.com/anonto42/careerconnect/backend/internal/apperr"
	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"go.uber.org/zap"
)

type NotificationService struct {
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	unread        *UnreadService
	emitter       Emitter
	logger        *zap.Logger
}

func NewNotificationService(notifications repositories.NotificationRepository, users repositories.UserRepository, unread *UnreadService, emitter Emitter, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		unread:        unread,
		emitter:       emitter,
		logger:        logger,
	}
}

// Create stores a notification without pushing anything.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		if errors.Is(err, repositories.ErrInvalidNotificationType) {
			return apperr.Validation("Invalid notification type")
		}
		return err
	}
	return nil
}

// Notify stores a notification and pushes the recipient's fresh unread summary.
func (s *NotificationService) Notify(ctx context.Context, recipientID, actorID uint, kind, content, relatedID string) (*models.Notification, error) {
	n := &models.Notification{
		RecipientID: recipientID,
		ActorID:     actorID,
		Type:        kind,
		Content:     content,
		RelatedID:   relatedID,
	}
	if err := s.Create(ctx, n); err != nil {
		return nil, err
	}
	s.PushSummary(ctx, recipientID)
	return n, nil
}

// PushSummary emits unread:summary to the user's room. Failures are only logged.
func (s *NotificationService) PushSummary(ctx context.Context, userID uint) {
	summary, err := s.unread.Summary(ctx, userID)
	if err != nil {
		s.logger.Error("failed to compute unread summary", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	s.emitter.EmitToUser(userID, realtime.EventUnreadSummary, summary)
}

func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) (*models.NotificationPage, error) {
	page, limit = NormalizePage(page, limit)

	items, total, err := s.notifications.ListByRecipient(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}

	actorIDs := make([]uint, 0, len(items))
	for _, n := range items {
		actorIDs = append(actorIDs, n.ActorID)
	}
	actors, err := summaries(ctx, s.users, actorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.NotificationView, 0, len(items))
	for _, n := range items {
		views = append(views, models.NotificationView{Notification: n, Actor: summaryOf(actors, n.ActorID)})
	}
	return &models.NotificationPage{Data: views, Page: page, Limit: limit, Total: total}, nil
}

// MarkAsRead acknowledges one notification on behalf of its recipient.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID uint, id string) (*models.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "Notification")
	}
	if n.RecipientID != userID {
		return nil, apperr.Forbidden("Not authorized to update this notification")
	}

	updated, err := s.notifications.MarkAsRead(ctx, n.ID)
	if err != nil {
		return nil, lookupError(err, "Notification")
	}
	s.PushSummary(ctx, userID)
	return updated, nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uint) (int64, error) {
	n, err := s.notifications.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.PushSummary(ctx, userID)
	}
	return n, nil
}
