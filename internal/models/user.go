// Package models contains the persistent entities of the blog.
package models

import (
	"strings"
	"time"
)

// User is an account that authors posts and comments and follows other users.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"size:150" json:"first_name"`
	LastName     string    `gorm:"size:150" json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`

	Posts     []Post    `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Comments  []Comment `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Following []Follow  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Followers []Follow  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}

// DisplayName returns the full name, falling back to the username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	full := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if full == "" {
		return u.Username
	}
	return full
}

func (u *User) String() string {
	return u.Username
}
