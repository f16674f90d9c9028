package handlers

import (
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// ConversationHandler exposes direct messaging over HTTP
type ConversationHandler struct {
	messaging *services.MessagingService
}

func NewConversationHandler(messaging *services.MessagingService) *ConversationHandler {
	return &ConversationHandler{messaging: messaging}
}

// RegisterConversationRoutes registers messaging routes. GET /conversations/:id takes a user
// id; the nested routes take a conversation id.
func (h *ConversationHandler) RegisterConversationRoutes(g *echo.Group) {
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:id", h.GetOrCreateConversation)
	g.GET("/conversations/:id/messages", h.ListMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.POST("/conversations/:id/read", h.MarkAsRead)
}

func (h *ConversationHandler) ListConversations(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	convs, err := h.messaging.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, convs)
}

// GetOrCreateConversation returns the direct conversation with the user in :id
func (h *ConversationHandler) GetOrCreateConversation(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user")
	if err != nil {
		return err
	}
	conv, err := h.messaging.GetOrCreateDirect(c.Request().Context(), userID, targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	result, err := h.messaging.ListMessages(c.Request().Context(), userID, c.Param("id"), page, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	msg, err := h.messaging.SendMessage(c.Request().Context(), userID, c.Param("id"), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) MarkAsRead(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if err := h.messaging.MarkConversationRead(c.Request().Context(), userID, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
