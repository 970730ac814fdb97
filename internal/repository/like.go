package repository

import (
	"context"

	"instaclone/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores one like per (user, publication) pair.
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	Delete(ctx context.Context, userID uint, code string) error
	Count(ctx context.Context, code string) (int64, error)
	Exists(ctx context.Context, userID uint, code string) (bool, error)
}

type likeRepository struct {
	conn
}

// NewLikeRepository creates a new LikeRepository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{conn: newConn(db)}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(like).Error; err != nil {
		switch {
		case isUniqueConstraintError(err):
			return models.NewConflictError("publication", "You already like this publication")
		case isForeignKeyError(err):
			return models.NewNotFoundError("Publication", like.PublicationCode)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *likeRepository) Delete(ctx context.Context, userID uint, code string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND publication_code = ?", userID, code).
		Delete(&models.Like{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Like", code).WithField("publication", "You do not like this publication")
	}
	return nil
}

func (r *likeRepository) Count(ctx context.Context, code string) (int64, error) {
	var n int64
	if err := r.read.WithContext(ctx).Model(&models.Like{}).Where("publication_code = ?", code).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *likeRepository) Exists(ctx context.Context, userID uint, code string) (bool, error) {
	var n int64
	if err := r.read.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND publication_code = ?", userID, code).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}
