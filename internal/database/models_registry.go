package database

import "instaclone/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Referenced tables come before the tables that point at them.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Permission{},
		&models.Group{},
		&models.User{},
		&models.Publication{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
	}
}
