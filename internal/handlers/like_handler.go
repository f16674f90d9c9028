package handlers

import (
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
	notifier       notifier
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifications *services.NotificationService, logger *zap.Logger) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		postRepository: postRepo,
		notifier:       notifier{notifications: notifications, users: userRepo, logger: logger},
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:id/likes", h.LikePost)
	g.DELETE("/posts/:id/likes", h.UnlikePost)
	g.GET("/posts/:id/likes", h.GetLikeStatus)
}

// LikePost likes a post and notifies its author
func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}

	like := &models.Like{PostID: post.ID.Hex(), UserID: userID}
	if err := h.likeRepository.CreateLike(ctx, like); err != nil {
		if err == repositories.ErrConflict {
			return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
		}
		return httpError(err)
	}

	h.notifier.send(c, post.AuthorID, userID, models.NotificationPostLike, "liked your post", like.PostID)
	return c.JSON(http.StatusCreated, like)
}

// UnlikePost removes the caller's like
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}

	if err := h.likeRepository.DeleteLike(ctx, post.ID.Hex(), userID); err != nil {
		if err == repositories.ErrNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLikeStatus returns the post's like count and whether the caller is among them
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}

	postID := post.ID.Hex()
	count, err := h.likeRepository.CountByPost(ctx, postID)
	if err != nil {
		return httpError(err)
	}
	hasLiked, err := h.likeRepository.HasLiked(ctx, postID, userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, models.LikeStatus{PostID: postID, Count: count, HasLiked: hasLiked})
}
