package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"instaclone/internal/database"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory sqlite database with the full schema.
// The pool is pinned to one connection, so code under test must not use the
// outer handle while a transaction is open.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open(sqlite.Open(database.SQLiteDSN(dsn)))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
