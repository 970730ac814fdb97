package service

import (
	"context"
	"testing"

	"instaclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedService_Feed(t *testing.T) {
	env := newEnv(t)
	follows := NewFollowService(env.repos.Follows, env.repos.Users, nil)
	svc := NewFeedService(env.repos.Publications, env.repos.Users)
	ctx := context.Background()

	me := env.user(t, "me")
	friend := env.user(t, "friend")
	stranger := env.user(t, "stranger")
	require.NoError(t, follows.AddFollow(ctx, me, friend.ID))

	var mine []string
	for i := 0; i < 3; i++ {
		mine = append(mine, env.publish(t, me, "mine").Code)
		env.publish(t, friend, "theirs")
	}
	env.publish(t, stranger, "hidden")

	page1, err := svc.Feed(ctx, me, 1)
	require.NoError(t, err)
	assert.Len(t, page1, FeedPageSize)

	page2, err := svc.Feed(ctx, me, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 2)

	page3, err := svc.Feed(ctx, me, 3)
	require.NoError(t, err)
	assert.NotNil(t, page3)
	assert.Empty(t, page3)

	page0, err := svc.Feed(ctx, me, 0)
	require.NoError(t, err)
	assert.Equal(t, codesOf(page1), codesOf(page0))

	all := append(page1, page2...)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "newest first")
	}
	for _, p := range all {
		assert.NotEqual(t, stranger.ID, p.UserID, "publications by users not followed never appear")
	}
	assert.Subset(t, codesOf(all), mine)
}

func TestFeedService_RecommendedUsers(t *testing.T) {
	env := newEnv(t)
	follows := NewFollowService(env.repos.Follows, env.repos.Users, nil)
	svc := NewFeedService(env.repos.Publications, env.repos.Users)
	ctx := context.Background()

	me := env.user(t, "me")
	followed := env.user(t, "followed")
	env.user(t, "sleepy", inactive)
	var expected []uint
	for _, name := range []string{"u1", "u2", "u3", "u4", "u5"} {
		expected = append(expected, env.user(t, name).ID)
	}
	require.NoError(t, follows.AddFollow(ctx, me, followed.ID))

	users, err := svc.RecommendedUsers(ctx, me)
	require.NoError(t, err)
	require.Len(t, users, RecommendedUserLimit)

	var ids []uint
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, expected[:4], ids)
	assert.NotContains(t, ids, me.ID)
	assert.NotContains(t, ids, followed.ID)
}

func codesOf(pubs []models.Publication) []string {
	out := make([]string, 0, len(pubs))
	for _, p := range pubs {
		out = append(out, p.Code)
	}
	return out
}
