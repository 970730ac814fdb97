package repository

import (
	"instaclone/internal/database"

	"gorm.io/gorm"
)

// readDB routes plain reads to the replica when one is connected.
func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.ReadReplica(); db != nil {
		return db
	}
	return primary
}

// conn carries the write handle and the handle reads should use. Inside a
// transaction both point at the transaction so reads observe its writes.
type conn struct {
	db   *gorm.DB
	read *gorm.DB
}

func newConn(db *gorm.DB) conn {
	return conn{db: db, read: readDB(db)}
}

func txConn(tx *gorm.DB) conn {
	return conn{db: tx, read: tx}
}
