package models

import "gorm.io/gorm"

// Comment represents a comment on a post
type Comment struct {
	gorm.Model
	PostID  string `json:"post_id" gorm:"size:24;index"` // Mongo post ObjectID as hex
	UserID  uint   `json:"user_id" gorm:"index"`
	Content string `json:"content"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// CommentView is a comment with its author resolved
type CommentView struct {
	Comment
	Author UserSummary `json:"author"`
}

// CommentPage is one page of a post's comments, oldest first
type CommentPage struct {
	Data  []CommentView `json:"data"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int64         `json:"total"`
}
