package models

import "time"

// PostPreviewLength is the number of characters of text used as the post's string form.
const PostPreviewLength = 15

// Post is a text entry with an optional image, published by an author and optionally filed into a group.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index" json:"pub_date"`
	AuthorID  *uint     `gorm:"index" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	GroupID   *uint     `gorm:"index" json:"group_id"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	Image     string    `gorm:"size:255" json:"image,omitempty"`
	Likes     []User    `gorm:"many2many:post_likes;constraint:OnDelete:CASCADE" json:"-"`

	Comments []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`

	// LikesCount is filled by the post repository from post_likes.
	LikesCount int64 `gorm:"-" json:"likes_count"`
}

// String returns the first characters of the post text.
func (p *Post) String() string {
	runes := []rune(p.Text)
	if len(runes) > PostPreviewLength {
		return string(runes[:PostPreviewLength])
	}
	return p.Text
}

// IsAuthoredBy reports whether userID wrote the post.
func (p *Post) IsAuthoredBy(userID uint) bool {
	return p.AuthorID != nil && *p.AuthorID == userID
}
