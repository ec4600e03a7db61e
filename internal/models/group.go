package models

// Group is a topical community posts may belong to.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Slug        string `gorm:"size:50;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`

	Posts []Post `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"-"`
}

func (g *Group) String() string {
	return g.Title
}
