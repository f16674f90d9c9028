package handlers

import (
	"net/http"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/realtime"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"github.com/anonto42/careerconnect/backend/internal/services"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Broadcaster pushes an event to every connected client
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// PostHandler handles HTTP requests related to posts and the feed
type PostHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	broadcaster    Broadcaster
	logger         *zap.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postRepo repositories.PostRepository, userRepo repositories.UserRepository, broadcaster Broadcaster, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		broadcaster:    broadcaster,
		logger:         logger,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts", h.GetFeed)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost stores a post and announces it to every connected client
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post := &models.Post{
		AuthorID:  userID,
		Content:   req.Content,
		ImageURLs: req.ImageURLs,
	}
	if err := h.postRepository.CreatePost(ctx, post); err != nil {
		return httpError(err)
	}

	view := models.PostView{Post: *post, Author: models.UserSummary{ID: userID}}
	if author, err := h.userRepository.GetUserByID(ctx, userID); err == nil {
		view.Author = author.ToSummary()
	}

	h.broadcaster.Broadcast(realtime.EventPostCreated, view)
	return c.JSON(http.StatusCreated, view)
}

// GetFeed returns posts newest first, optionally filtered by author_id
func (h *PostHandler) GetFeed(c echo.Context) error {
	page, limit := services.NormalizePage(pageParams(c))
	ctx := c.Request().Context()

	var (
		authorID uint
		posts    []models.Post
		err      error
	)
	if c.QueryParam("author_id") != "" {
		if authorID, err = parseUintQuery(c, "author_id"); err != nil {
			return err
		}
		posts, err = h.postRepository.ListPostsByAuthor(ctx, authorID, page, limit)
	} else {
		posts, err = h.postRepository.ListPosts(ctx, page, limit)
	}
	if err != nil {
		return httpError(err)
	}

	total, err := h.postRepository.CountPosts(ctx, authorID)
	if err != nil {
		return httpError(err)
	}

	authorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
	}
	users, err := h.userRepository.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return httpError(err)
	}
	authors := make(map[uint]models.UserSummary, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].ToSummary()
	}

	views := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			author = models.UserSummary{ID: p.AuthorID}
		}
		views = append(views, models.PostView{Post: p, Author: author})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":     views,
		"page":     page,
		"limit":    limit,
		"total":    total,
		"has_more": int64(page*limit) < total,
	})
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}

	view := models.PostView{Post: *post, Author: models.UserSummary{ID: post.AuthorID}}
	if author, err := h.userRepository.GetUserByID(ctx, post.AuthorID); err == nil {
		view.Author = author.ToSummary()
	}
	return c.JSON(http.StatusOK, view)
}

// UpdatePost updates an existing post owned by the caller
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}
	if post.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You can only edit your own posts")
	}

	if req.Content != "" {
		post.Content = req.Content
	}
	if req.ImageURLs != nil {
		post.ImageURLs = req.ImageURLs
	}
	if err := h.postRepository.UpdatePost(ctx, post); err != nil {
		return postError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost removes a post; the author or an admin may do so
func (h *PostHandler) DeletePost(c echo.Context) error {
	identity := getIdentity(c)
	if identity.UserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	ctx := c.Request().Context()
	post, err := h.postRepository.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		return postError(err)
	}
	if post.AuthorID != identity.UserID && !identity.IsAdmin() {
		return echo.NewHTTPError(http.StatusForbidden, "You can only delete your own posts")
	}

	if err := h.postRepository.DeletePost(ctx, post.ID.Hex()); err != nil {
		return postError(err)
	}
	if identity.UserID != post.AuthorID {
		h.logger.Info("post removed by admin", zap.String("post_id", post.ID.Hex()), zap.Uint("admin_id", identity.UserID))
	}
	return c.NoContent(http.StatusNoContent)
}

func postError(err error) error {
	if err == repositories.ErrNotFound {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return httpError(err)
}
