package seed

import (
	"context"
	"testing"
	"time"

	"instaclone/internal/models"
	"instaclone/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUser_IsValidAndActive(t *testing.T) {
	f, err := NewFactory(nil, Options{DryRun: true, FastHash: true, RandomSeed: 7, MaxDays: 30})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		u := f.BuildUser()
		assert.NoError(t, models.Validate(u, models.ValidateOptions{}), u.Username)
		assert.True(t, u.IsActive)
		assert.NotEmpty(t, u.Password)
		assert.WithinDuration(t, time.Now(), u.DateJoined, 31*24*time.Hour)
	}
}

func TestBuildPublication_CodeAndDescription(t *testing.T) {
	f, err := NewFactory(nil, Options{DryRun: true, FastHash: true})
	require.NoError(t, err)

	p, err := f.BuildPublication(&models.User{ID: 4})
	require.NoError(t, err)
	assert.True(t, models.ValidPublicationCode(p.Code))
	assert.LessOrEqual(t, len([]rune(p.Description)), models.DescriptionMaxLength)
	assert.Equal(t, uint(4), p.UserID)
	require.NotNil(t, p.CreatedByID)
	assert.Equal(t, uint(4), *p.CreatedByID)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestSeed_DryRunWritesNothing(t *testing.T) {
	res, err := Seed(context.Background(), nil, Options{
		DryRun:          true,
		FastHash:        true,
		NumUsers:        5,
		NumPublications: 8,
		FollowsPerUser:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Users)
	assert.Equal(t, 10, res.Follows)
	assert.Equal(t, 8, res.Publications)
}

func TestSeed_BuildsConsistentGraph(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	res, err := Seed(ctx, db, Options{
		NumUsers:        6,
		NumPublications: 10,
		FollowsPerUser:  3,
		LikeRatio:       1,
		FastHash:        true,
		RandomSeed:      42,
	})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Users)
	assert.Equal(t, 18, res.Follows)
	assert.Equal(t, 10, res.Publications)

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = followed_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	var likes int64
	require.NoError(t, db.Model(&models.Like{}).Count(&likes).Error)
	assert.Equal(t, int64(res.Likes), likes)

	var memberships int64
	require.NoError(t, db.Table("user_groups").Count(&memberships).Error)
	assert.Equal(t, int64(6*len(models.DefaultGroups)), memberships)

	// Every liker follows the owner of what they liked.
	var strangers int64
	require.NoError(t, db.Raw(`
		SELECT COUNT(*) FROM likes l
		JOIN publications p ON p.code = l.publication_code
		WHERE NOT EXISTS (
			SELECT 1 FROM follows f WHERE f.follower_id = l.user_id AND f.followed_id = p.user_id
		)`).Scan(&strangers).Error)
	assert.Zero(t, strangers)
}

func TestClean_KeepsSuperusers(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, Options{NumUsers: 3, NumPublications: 3, FollowsPerUser: 1, FastHash: true})
	require.NoError(t, err)

	f, err := NewFactory(db, Options{FastHash: true})
	require.NoError(t, err)
	root, err := f.CreateUser(ctx, func(u *models.User) {
		u.Username = "root"
		u.IsSuperuser = true
	})
	require.NoError(t, err)

	require.NoError(t, Clean(ctx, db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, root.ID, users[0].ID)

	var pubs int64
	require.NoError(t, db.Model(&models.Publication{}).Count(&pubs).Error)
	assert.Zero(t, pubs)
}
