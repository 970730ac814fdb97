package repository

import (
	"context"

	"instaclone/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the directed follow edges between users.
type FollowRepository interface {
	Exists(ctx context.Context, followerID, followedID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	Followers(ctx context.Context, userID uint) ([]models.User, error)
	Following(ctx context.Context, userID uint) ([]models.User, error)
	Counts(ctx context.Context, userID uint) (models.FollowCounts, error)
	Create(ctx context.Context, follow *models.Follow) error
	Delete(ctx context.Context, followerID, followedID uint) error
}

type followRepository struct {
	conn
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{conn: newConn(db)}
}

func (r *followRepository) Exists(ctx context.Context, followerID, followedID uint) (bool, error) {
	var n int64
	if err := r.read.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Limit(1).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.read.WithContext(ctx).
		Model(&models.Follow{}).
		Distinct("followed_id").
		Where("follower_id = ?", userID).
		Order("followed_id").
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *followRepository) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return r.listUsers(ctx, "follows.follower_id", "follows.followed_id", userID)
}

func (r *followRepository) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return r.listUsers(ctx, "follows.followed_id", "follows.follower_id", userID)
}

// listUsers returns the users on the joinCol side of every edge whose matchCol is userID.
func (r *followRepository) listUsers(ctx context.Context, joinCol, matchCol string, userID uint) ([]models.User, error) {
	var users []models.User
	if err := r.read.WithContext(ctx).
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(matchCol+" = ?", userID).
		Order("users.id ASC").
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Counts runs two counting queries; results are never cached.
func (r *followRepository) Counts(ctx context.Context, userID uint) (models.FollowCounts, error) {
	var counts models.FollowCounts
	db := r.read.WithContext(ctx)
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&counts.FollowingCount).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	if err := db.Model(&models.Follow{}).Where("followed_id = ?", userID).Count(&counts.FollowersCount).Error; err != nil {
		return counts, models.NewInternalError(err)
	}
	return counts, nil
}

func (r *followRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(follow).Error; err != nil {
		switch {
		case isUniqueConstraintError(err):
			return models.NewConflictError("followed", "You already follow this user")
		case isCheckConstraintError(err):
			return models.NewInvalidOperationError("followed", "You cannot follow yourself")
		case isForeignKeyError(err):
			return models.NewNotFoundError("User", follow.FollowedID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followedID uint) error {
	res := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Follow", followedID).WithField("followed", "You do not follow this user")
	}
	return nil
}
