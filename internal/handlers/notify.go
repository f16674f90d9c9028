package handlers

import (
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// notifier creates side-effect notifications for handlers. It is best effort: the action
// that triggered it has already been stored.
type notifier struct {
	notifications *services.NotificationService
	users         repositories.UserRepository
	logger        *zap.Logger
}

// send stores "<actor name> <action>" for recipient. Self-notifications are skipped.
func (n notifier) send(c echo.Context, recipientID, actorID uint, kind, action, relatedID string) {
	if recipientID == actorID {
		return
	}
	ctx := c.Request().Context()

	name := "Someone"
	if actor, err := n.users.GetUserByID(ctx, actorID); err == nil {
		name = actor.Name
	}
	if _, err := n.notifications.Notify(ctx, recipientID, actorID, kind, name+" "+action, relatedID); err != nil {
		n.logger.Error("failed to create notification",
			zap.Uint("recipient_id", recipientID),
			zap.String("type", kind),
			zap.Error(err),
		)
	}
}
