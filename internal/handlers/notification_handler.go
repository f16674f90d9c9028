package handlers

import (
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification and unread-count requests
type NotificationHandler struct {
	notifications *services.NotificationService
	unread        *services.UnreadService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *services.NotificationService, unread *services.UnreadService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, unread: unread}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/unread", h.GetUnreadSummary)
	g.GET("/notifications", h.GetNotifications)
	g.POST("/notifications/read-all", h.MarkAllAsRead)
	g.POST("/notifications/:id/read", h.MarkAsRead)
}

// GetUnreadSummary returns unread message and notification counts for the caller
func (h *NotificationHandler) GetUnreadSummary(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	summary, err := h.unread.Summary(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// GetNotifications returns paginated notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	result, err := h.notifications.List(c.Request().Context(), userID, page, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// MarkAsRead acknowledges one notification addressed to the caller
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAsRead(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	count, err := h.notifications.MarkAllAsRead(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "updated": count})
}
