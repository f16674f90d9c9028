package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
)

type likeKey struct {
	postID string
	userID uint
}

type LikeRepository struct {
	mu     sync.RWMutex
	likes  map[likeKey]models.Like
	nextID uint
}

func NewLikeRepository() *LikeRepository {
	return &LikeRepository{likes: make(map[likeKey]models.Like)}
}

func (r *LikeRepository) CreateLike(_ context.Context, like *models.Like) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := likeKey{like.PostID, like.UserID}
	if _, ok := r.likes[key]; ok {
		return repositories.ErrConflict
	}
	r.nextID++
	now := time.Now().UTC()
	like.ID = r.nextID
	like.CreatedAt = now
	like.UpdatedAt = now
	r.likes[key] = *like
	return nil
}

func (r *LikeRepository) DeleteLike(_ context.Context, postID string, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := likeKey{postID, userID}
	if _, ok := r.likes[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.likes, key)
	return nil
}

func (r *LikeRepository) CountByPost(_ context.Context, postID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for key := range r.likes {
		if key.postID == postID {
			n++
		}
	}
	return n, nil
}

func (r *LikeRepository) HasLiked(_ context.Context, postID string, userID uint) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.likes[likeKey{postID, userID}]
	return ok, nil
}
