package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
)

type CommentRepository struct {
	mu       sync.RWMutex
	comments []models.Comment // creation order
	nextID   uint
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{}
}

func (r *CommentRepository) CreateComment(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := time.Now().UTC()
	comment.ID = r.nextID
	comment.CreatedAt = now
	comment.UpdatedAt = now
	r.comments = append(r.comments, *comment)
	return nil
}

func (r *CommentRepository) GetCommentByID(_ context.Context, id uint) (*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		c := r.comments[i]
		return &c, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *CommentRepository) ListByPost(_ context.Context, postID string, pg, limit int) ([]models.Comment, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Comment
	for _, c := range r.comments {
		if c.PostID == postID {
			matched = append(matched, c)
		}
	}
	start, end := page(len(matched), pg, limit)
	return append([]models.Comment(nil), matched[start:end]...), int64(len(matched)), nil
}

func (r *CommentRepository) UpdateComment(_ context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(comment.ID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	r.comments[i].Content = comment.Content
	r.comments[i].UpdatedAt = time.Now().UTC()
	return nil
}

func (r *CommentRepository) DeleteComment(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return repositories.ErrNotFound
	}
	r.comments = append(r.comments[:i], r.comments[i+1:]...)
	return nil
}

func (r *CommentRepository) indexOf(id uint) int {
	for i, c := range r.comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}
