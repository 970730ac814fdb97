package service

import (
	"context"
	"log/slog"

	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/observability"
	"instaclone/internal/repository"
)

// FollowService maintains the directed follow graph between users.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
	events  EventPublisher
}

// NewFollowService returns a new FollowService. events may be nil.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository, events EventPublisher) *FollowService {
	return &FollowService{
		follows: follows,
		users:   users,
		events:  events,
	}
}

// IsFollowing reports whether followerID follows followedID.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.follows.Exists(ctx, followerID, followedID)
}

// FollowingIDs returns the distinct ids userID follows, ascending.
func (s *FollowService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.follows.FollowingIDs(ctx, userID)
}

// Followers returns the users following userID, ordered by id.
func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.follows.Followers(ctx, userID)
}

// Following returns the users userID follows, ordered by id.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.follows.Following(ctx, userID)
}

// FollowCounts is recomputed on every call.
func (s *FollowService) FollowCounts(ctx context.Context, userID uint) (models.FollowCounts, error) {
	return s.follows.Counts(ctx, userID)
}

// AddFollow creates the edge follower -> followedID, audited with follower as actor.
func (s *FollowService) AddFollow(ctx context.Context, follower *models.User, followedID uint) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "FollowService", "AddFollow")
	defer func() { finish(err) }()

	if err := requireActive(follower); err != nil {
		return err
	}
	if follower.ID == followedID {
		return models.NewInvalidOperationError("followed", "You cannot follow yourself")
	}
	followed, err := s.users.GetByID(ctx, followedID)
	if err != nil {
		return err
	}
	exists, err := s.follows.Exists(ctx, follower.ID, followedID)
	if err != nil {
		return err
	}
	if exists {
		return models.NewConflictError("followed", "You already follow this user")
	}

	edge := &models.Follow{FollowerID: follower.ID, FollowedID: followedID}
	models.ApplyAudit(edge, follower.ID, true)
	// A concurrent request may have won the race; the unique index reports it as a conflict.
	if err := s.follows.Create(ctx, edge); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "user followed",
		slog.Uint64("follower_id", uint64(follower.ID)),
		slog.Uint64("followed_id", uint64(followedID)),
	)
	publish(ctx, s.events, followedID, EventUserFollowed, map[string]interface{}{
		"follower": follower.Summary(),
		"followed": followed.Username,
	})
	return nil
}

// RemoveFollow deletes the edge, failing with NOT_FOUND when it does not exist.
func (s *FollowService) RemoveFollow(ctx context.Context, follower *models.User, followedID uint) error {
	if err := requireActive(follower); err != nil {
		return err
	}
	return s.follows.Delete(ctx, follower.ID, followedID)
}
