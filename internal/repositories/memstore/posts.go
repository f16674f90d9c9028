package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/careerconnect/backend/internal/models"
	"github.com/anonto42/careerconnect/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PostRepository struct {
	mu    sync.RWMutex
	posts []models.Post
}

func NewPostRepository() *PostRepository {
	return &PostRepository{}
}

func (r *PostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	r.posts = append(r.posts, clonePost(*post))
	return nil
}

func (r *PostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	objID, err := repositories.ParseObjectID(id)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(objID); i >= 0 {
		p := clonePost(r.posts[i])
		return &p, nil
	}
	return nil, repositories.ErrNotFound
}

func (r *PostRepository) ListPosts(_ context.Context, page, limit int) ([]models.Post, error) {
	return r.list(func(models.Post) bool { return true }, page, limit), nil
}

func (r *PostRepository) ListPostsByAuthor(_ context.Context, authorID uint, page, limit int) ([]models.Post, error) {
	return r.list(func(p models.Post) bool { return p.AuthorID == authorID }, page, limit), nil
}

func (r *PostRepository) CountPosts(_ context.Context, authorID uint) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.posts {
		if authorID == 0 || p.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

func (r *PostRepository) UpdatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(post.ID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	post.UpdatedAt = time.Now().UTC()
	stored := r.posts[i]
	stored.Content = post.Content
	stored.ImageURLs = post.ImageURLs
	stored.UpdatedAt = post.UpdatedAt
	r.posts[i] = clonePost(stored)
	return nil
}

func (r *PostRepository) DeletePost(_ context.Context, id string) error {
	objID, err := repositories.ParseObjectID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(objID)
	if i < 0 {
		return repositories.ErrNotFound
	}
	r.posts = append(r.posts[:i], r.posts[i+1:]...)
	return nil
}

// list walks newest first; posts are kept in insertion order
func (r *PostRepository) list(match func(models.Post) bool, pg, limit int) []models.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Post
	for i := len(r.posts) - 1; i >= 0; i-- {
		if match(r.posts[i]) {
			matched = append(matched, r.posts[i])
		}
	}
	start, end := page(len(matched), pg, limit)
	out := make([]models.Post, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, clonePost(p))
	}
	return out
}

func (r *PostRepository) indexOf(id primitive.ObjectID) int {
	for i, p := range r.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func clonePost(p models.Post) models.Post {
	if p.ImageURLs != nil {
		p.ImageURLs = append([]string(nil), p.ImageURLs...)
	}
	return p
}
