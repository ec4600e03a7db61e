package database

import "yatube/internal/models"

// PersistentModels returns the models managed by AutoMigrate, parents before children.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	}
}
