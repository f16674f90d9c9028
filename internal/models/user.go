package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

// User roles
const (
	RoleStudent = "student"
	RoleAlumni  = "alumni"
	RoleAdmin   = "admin"
)

// User is a CareerConnect member (PostgreSQL)
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name"`
	Email       string         `json:"email" gorm:"uniqueIndex"`
	Password    string         `json:"-"`
	FirebaseUID *string        `json:"firebase_uid,omitempty" gorm:"uniqueIndex"`
	Role        string         `json:"role" gorm:"size:20;default:student"`
	Avatar      string         `json:"avatar"`
	Headline    string         `json:"headline"`
	Skills      []string       `json:"skills" gorm:"serializer:json"`
	IsActive    bool           `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// UserSummary is the display shape used wherever a user is embedded in another resource
type UserSummary struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

func (u *User) ToSummary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=student alumni"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name     string   `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Avatar   string   `json:"avatar,omitempty" validate:"omitempty,url"`
	Headline string   `json:"headline,omitempty" validate:"omitempty,max=120"`
	Skills   []string `json:"skills,omitempty" validate:"omitempty,max=50,dive,min=1,max=40"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
