package handlers

import (
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
	userRepository    repositories.UserRepository
	notifier          notifier
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notifications *services.NotificationService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{
		commentRepository: commentRepo,
		postRepository:    postRepo,
		userRepository:    userRepo,
		notifier:          notifier{notifications: notifications, users: userRepo, logger: logger},
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.GET("/posts/:id/comments", h.GetCommentsByPost)
	g.PUT("/comments/:id", h.UpdateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// CreateComment creates a new comment on a post and notifies its author
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}

	comment := &models.Comment{
		PostID:  post.ID.Hex(),
		UserID:  userID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return httpError(err)
	}

	h.notifier.send(c, post.AuthorID, userID, models.NotificationPostComment, "commented on your post", comment.PostID)
	return c.JSON(http.StatusCreated, h.view(c, *comment))
}

// GetCommentsByPost returns a page of a post's comments, oldest first
func (h *CommentHandler) GetCommentsByPost(c echo.Context) error {
	page, limit := services.NormalizePage(pageParams(c))
	ctx := c.Request().Context()

	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}

	comments, total, err := h.commentRepository.ListByPost(ctx, post.ID.Hex(), page, limit)
	if err != nil {
		return httpError(err)
	}

	ids := make([]uint, 0, len(comments))
	for _, cm := range comments {
		ids = append(ids, cm.UserID)
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, ids)
	if err != nil {
		return httpError(err)
	}
	authors := make(map[uint]models.UserSummary, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].ToSummary()
	}

	views := make([]models.CommentView, 0, len(comments))
	for _, cm := range comments {
		author, ok := authors[cm.UserID]
		if !ok {
			author = models.UserSummary{ID: cm.UserID}
		}
		views = append(views, models.CommentView{Comment: cm, Author: author})
	}
	return c.JSON(http.StatusOK, models.CommentPage{Data: views, Page: page, Limit: limit, Total: total})
}

// UpdateComment edits a comment; only its author may do so
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id", "comment")
	if err != nil {
		return err
	}

	var req models.UpdateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return commentError(err)
	}
	if comment.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to update this comment")
	}

	comment.Content = req.Content
	if err := h.commentRepository.UpdateComment(ctx, comment); err != nil {
		return commentError(err)
	}
	return c.JSON(http.StatusOK, h.view(c, *comment))
}

// DeleteComment removes a comment; its author or an admin may do so
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	identity := getIdentity(c)
	if identity.UserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	commentID, err := parseUintParam(c, "id", "comment")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return commentError(err)
	}
	if comment.UserID != identity.UserID && !identity.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	if err := h.commentRepository.DeleteComment(ctx, commentID); err != nil {
		return commentError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CommentHandler) view(c echo.Context, comment models.Comment) models.CommentView {
	v := models.CommentView{Comment: comment, Author: models.UserSummary{ID: comment.UserID}}
	if author, err := h.userRepository.GetUserByID(c.Request().Context(), comment.UserID); err == nil {
		v.Author = author.ToSummary()
	}
	return v
}

func commentError(err error) error {
	if err == repositories.ErrNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
	}
	return httpError(err)
}
