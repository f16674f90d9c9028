package models

import "gorm.io/gorm"

// Like is one member's like on a post. The pair (post, user) is unique.
type Like struct {
	gorm.Model
	PostID string `json:"post_id" gorm:"size:24;uniqueIndex:idx_like_post_user"` // Mongo post ObjectID as hex
	UserID uint   `json:"user_id" gorm:"uniqueIndex:idx_like_post_user"`
}

// LikeStatus answers "how many likes, and is one of them mine"
type LikeStatus struct {
	PostID   string `json:"post_id"`
	Count    int64  `json:"likes_count"`
	HasLiked bool   `json:"has_liked"`
}
