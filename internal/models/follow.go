package models

// Follow is a directed edge: User follows Author.
// There is no unique constraint on the pair; creation goes through get-or-create.
type Follow struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	UserID   uint  `gorm:"index;not null" json:"user_id"`
	User     *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AuthorID uint  `gorm:"index;not null" json:"author_id"`
	Author   *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
}
