package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository struct {
	mu            sync.RWMutex
	notifications []models.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) CreateNotification(_ context.Context, n *models.Notification) error {
	if !models.IsValidNotificationType(n.Type) {
		return fmt.Errorf("%w: %q", repositories.ErrInvalidNotificationType, n.Type)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = primitive.NewObjectID()
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()
	r.notifications = append(r.notifications, *n)
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id string) (*models.Notification, error) {
	objID, err := repositories.ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, n := range r.notifications {
		if n.ID == objID {
			return &n, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *NotificationRepository) ListByRecipient(_ context.Context, userID uint, pg, limit int) ([]models.Notification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].RecipientID == userID {
			matched = append(matched, r.notifications[i])
		}
	}
	start, end := page(len(matched), pg, limit)
	out := append([]models.Notification{}, matched[start:end]...)
	return out, int64(len(matched)), nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, userID uint) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, notif := range r.notifications {
		if notif.RecipientID == userID && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

func (r *NotificationRepository) MarkAsRead(_ context.Context, id primitive.ObjectID) (*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.notifications {
		if r.notifications[i].ID == id {
			r.notifications[i].IsRead = true
			n := r.notifications[i]
			return &n, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *NotificationRepository) MarkAllAsRead(_ context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for i := range r.notifications {
		if r.notifications[i].RecipientID == userID && !r.notifications[i].IsRead {
			r.notifications[i].IsRead = true
			count++
		}
	}
	return count, nil
}
