package repository

import (
	"testing"
	"time"

	"instaclone/internal/models"
	"instaclone/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.NewSQLiteDB(t)
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "x",
		IsActive:   true,
		DateJoined: time.Now().UTC(),
	}
	require.NoError(t, NewUserRepository(db).Create(t.Context(), u))
	return u
}

func follow(t *testing.T, db *gorm.DB, from, to *models.User) {
	t.Helper()
	f := &models.Follow{FollowerID: from.ID, FollowedID: to.ID}
	models.ApplyAudit(f, from.ID, true)
	require.NoError(t, NewFollowRepository(db).Create(t.Context(), f))
}

func createPublication(t *testing.T, db *gorm.DB, code string, owner *models.User, at time.Time) *models.Publication {
	t.Helper()
	p := &models.Publication{Code: code, Image: "http://media.test/instaclone/publications/" + code + ".webp", UserID: owner.ID}
	models.ApplyAudit(p, owner.ID, true)
	p.CreatedAt, p.UpdatedAt = at, at
	require.NoError(t, NewPublicationRepository(db).Create(t.Context(), p))
	return p
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func codes(pubs []models.Publication) []string {
	out := make([]string, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, p.Code)
	}
	return out
}
