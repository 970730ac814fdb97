//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"instaclone/internal/database"
	"instaclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDB starts a throwaway PostgreSQL container and applies the SQL migrations.
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("instaclone_test"),
		tcpostgres.WithUsername("instaclone"),
		tcpostgres.WithPassword("instaclone"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Open(postgres.Open(dsn))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(ctx, db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgresConstraints(t *testing.T) {
	db := newPostgresDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	me := createUser(t, db, "me")
	other := createUser(t, db, "other")

	t.Run("Default groups are seeded by migrations", func(t *testing.T) {
		require.NoError(t, repos.Groups.AddUserToGroups(ctx, me, models.DefaultGroups))
		perms, err := repos.Groups.PermissionCodenames(ctx, me.ID)
		require.NoError(t, err)
		assert.Contains(t, perms, "posts.create_publication")
		assert.Contains(t, perms, "users.create_follow")
		assert.NotContains(t, perms, "users.create_user")
	})

	t.Run("Duplicate username", func(t *testing.T) {
		dup := &models.User{Username: "me", Email: "else@example.com", Password: "x", IsActive: true, DateJoined: time.Now().UTC()}
		err := repos.Users.Create(ctx, dup)
		require.Equal(t, models.CodeConflict, models.ErrorCode(err))
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Contains(t, appErr.Fields, "username")
	})

	t.Run("Follow constraints", func(t *testing.T) {
		follow(t, db, me, other)
		err := repos.Follows.Create(ctx, &models.Follow{FollowerID: me.ID, FollowedID: other.ID})
		assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
		err = repos.Follows.Create(ctx, &models.Follow{FollowerID: me.ID, FollowedID: me.ID})
		assert.Equal(t, models.CodeInvalidOperation, models.ErrorCode(err))
	})

	t.Run("Publication code shape is enforced", func(t *testing.T) {
		p := &models.Publication{Code: "bad-1!", Image: "http://x/y.webp", UserID: me.ID}
		models.ApplyAudit(p, me.ID, true)
		err := repos.Publications.Create(ctx, p)
		assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
	})

	t.Run("Feed", func(t *testing.T) {
		base := time.Now().UTC().Truncate(time.Second)
		createPublication(t, db, "PgFd01", other, base)
		createPublication(t, db, "PgFd02", me, base.Add(time.Second))
		pubs, err := repos.Publications.Feed(ctx, me.ID, 4, 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"PgFd02", "PgFd01"}, codes(pubs))
	})
}
