// Package memstore keeps every repository in process memory. It backs the tests and the
// STORE_DRIVER=memory mode; nothing survives a restart.
package memstore

import (
	"strings"

	"github.com/anonto42/careerconnect/backend/internal/repositories"
)

// Store groups one in-memory implementation of each repository
type Store struct {
	Users         *UserRepository
	Connections   *ConnectionRepository
	Posts         *PostRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
	Notifications *NotificationRepository
	Likes         *LikeRepository
	Comments      *CommentRepository
}

func New() *Store {
	users := NewUserRepository()
	return &Store{
		Users:         users,
		Connections:   NewConnectionRepository(users),
		Posts:         NewPostRepository(),
		Conversations: NewConversationRepository(),
		Messages:      NewMessageRepository(),
		Notifications: NewNotificationRepository(),
		Likes:         NewLikeRepository(),
		Comments:      NewCommentRepository(),
	}
}

var (
	_ repositories.UserRepository         = (*UserRepository)(nil)
	_ repositories.ConnectionRepository   = (*ConnectionRepository)(nil)
	_ repositories.PostRepository         = (*PostRepository)(nil)
	_ repositories.ConversationRepository = (*ConversationRepository)(nil)
	_ repositories.MessageRepository      = (*MessageRepository)(nil)
	_ repositories.NotificationRepository = (*NotificationRepository)(nil)
	_ repositories.LikeRepository         = (*LikeRepository)(nil)
	_ repositories.CommentRepository      = (*CommentRepository)(nil)
)

func page(total, page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if page-1 > total/limit {
		return total, total
	}
	start := (page - 1) * limit
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
