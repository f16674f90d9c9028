package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UserHandler handles HTTP requests related to users
type UserHandler struct {
	userRepository repositories.UserRepository
	logger         *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{userRepository: userRepo, logger: logger}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.DELETE("/profile", h.DeactivateProfile)
	g.GET("/users/search", h.SearchUsers)
	g.GET("/users/:id", h.GetUser)
}

// RegisterAdminRoutes registers routes that expect an admin-only group
func (h *UserHandler) RegisterAdminRoutes(g *echo.Group) {
	g.PUT("/users/:id/active", h.SetActive)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseUintParam(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), id)
	if err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}
	if req.Headline != "" {
		user.Headline = req.Headline
	}
	if req.Skills != nil {
		user.Skills = normalizeSkills(req.Skills)
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeactivateProfile soft-disables the caller; existing tokens stop working immediately.
func (h *UserHandler) DeactivateProfile(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if err := h.userRepository.SetActive(c.Request().Context(), userID, false); err != nil {
		return httpError(err)
	}
	h.logger.Info("user deactivated own account", zap.Uint("user_id", userID))
	return c.NoContent(http.StatusNoContent)
}

// SearchUsers searches for users by a query string (email or name)
func (h *UserHandler) SearchUsers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}

	users, err := h.userRepository.SearchUsers(c.Request().Context(), query)
	if err != nil {
		return httpError(err)
	}

	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToSummary())
	}
	return c.JSON(http.StatusOK, out)
}

// SetActive lets an admin enable or disable an account
func (h *UserHandler) SetActive(c echo.Context) error {
	id, err := parseUintParam(c, "id", "user")
	if err != nil {
		return err
	}
	var req models.SetActiveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if id == getUserIDFromContext(c) && !*req.Active {
		return echo.NewHTTPError(http.StatusBadRequest, "Admins cannot deactivate themselves")
	}

	if err := h.userRepository.SetActive(c.Request().Context(), id, *req.Active); err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return httpError(err)
	}
	h.logger.Info("user activity changed",
		zap.Uint("user_id", id),
		zap.Bool("active", *req.Active),
		zap.Uint("admin_id", getUserIDFromContext(c)),
	)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "active": *req.Active})
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
