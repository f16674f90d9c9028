package handlers

import (
	"fmt"
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ConnectionHandler handles connection requests between members
type ConnectionHandler struct {
	connectionRepository repositories.ConnectionRepository
	userRepository       repositories.UserRepository
	notifier             notifier
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(connectionRepo repositories.ConnectionRepository, userRepo repositories.UserRepository, notifications *services.NotificationService, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		connectionRepository: connectionRepo,
		userRepository:       userRepo,
		notifier:             notifier{notifications: notifications, users: userRepo, logger: logger},
	}
}

// RegisterConnectionRoutes registers connection-related routes
func (h *ConnectionHandler) RegisterConnectionRoutes(g *echo.Group) {
	g.POST("/connections/requests", h.SendRequest)
	g.GET("/connections/requests/pending", h.GetPendingRequests)
	g.PUT("/connections/requests/:id", h.RespondToRequest)
	g.GET("/connections", h.GetConnections)
	g.DELETE("/connections/:id", h.RemoveConnection)
}

// SendRequest asks another member to connect and notifies them
func (h *ConnectionHandler) SendRequest(c echo.Context) error {
	senderID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateConnectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.ReceiverID == senderID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot send a connection request to yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, req.ReceiverID); err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Receiver user not found")
		}
		return httpError(err)
	}

	request := &models.ConnectionRequest{SenderID: senderID, ReceiverID: req.ReceiverID}
	if err := h.connectionRepository.CreateRequest(ctx, request); err != nil {
		if err == repositories.ErrConflict {
			return echo.NewHTTPError(http.StatusConflict, "A connection request already exists between these users")
		}
		return httpError(err)
	}

	h.notifier.send(c, req.ReceiverID, senderID, models.NotificationConnectionRequest, "wants to connect with you", fmt.Sprint(request.ID))
	return c.JSON(http.StatusCreated, request)
}

// GetPendingRequests lists requests waiting on the caller
func (h *ConnectionHandler) GetPendingRequests(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	requests, err := h.connectionRepository.ListPendingForReceiver(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, requests)
}

// RespondToRequest accepts or rejects a request addressed to the caller
func (h *ConnectionHandler) RespondToRequest(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	requestID, err := parseUintParam(c, "id", "request")
	if err != nil {
		return err
	}

	var req models.UpdateConnectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	request, err := h.connectionRepository.GetRequestByID(ctx, requestID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Connection request not found")
		}
		return httpError(err)
	}
	if request.ReceiverID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this connection request")
	}
	if request.Status != models.ConnectionPending {
		return echo.NewHTTPError(http.StatusConflict, "Connection request already answered")
	}

	if err := h.connectionRepository.UpdateRequestStatus(ctx, requestID, req.Status); err != nil {
		return httpError(err)
	}
	request.Status = req.Status

	if req.Status == models.ConnectionAccepted {
		h.notifier.send(c, request.SenderID, userID, models.NotificationConnectionAccepted, "accepted your connection request", fmt.Sprint(request.ID))
	}
	return c.JSON(http.StatusOK, request)
}

// GetConnections lists the caller's accepted connections
func (h *ConnectionHandler) GetConnections(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	users, err := h.connectionRepository.ListConnections(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}

	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToSummary())
	}
	return c.JSON(http.StatusOK, out)
}

// RemoveConnection deletes the accepted connection with the user in :id
func (h *ConnectionHandler) RemoveConnection(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	otherID, err := parseUintParam(c, "id", "user")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	request, err := h.connectionRepository.GetAcceptedBetween(ctx, userID, otherID)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Connection not found")
		}
		return httpError(err)
	}
	if err := h.connectionRepository.DeleteRequest(ctx, request.ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
