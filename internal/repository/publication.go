package repository

import (
	"context"

	"instaclone/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublicationRepository defines the interface for publication data operations
type PublicationRepository interface {
	GetByCode(ctx context.Context, code string) (*models.Publication, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Publication, error)
	Feed(ctx context.Context, userID uint, limit, offset int) ([]models.Publication, error)
	Create(ctx context.Context, pub *models.Publication) error
	Update(ctx context.Context, pub *models.Publication, fields []string) error
	Delete(ctx context.Context, code string) error
}

type publicationRepository struct {
	conn
}

// NewPublicationRepository creates a new publication repository
func NewPublicationRepository(db *gorm.DB) PublicationRepository {
	return &publicationRepository{conn: newConn(db)}
}

// newestFirst is the listing order everywhere; code breaks timestamp ties.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("publications.created_at DESC").Order("publications.code ASC")
}

func (r *publicationRepository) GetByCode(ctx context.Context, code string) (*models.Publication, error) {
	var pub models.Publication
	if err := r.read.WithContext(ctx).Preload("User").Where("code = ?", code).First(&pub).Error; err != nil {
		return nil, notFoundOr(err, "Publication", code)
	}
	return &pub, nil
}

func (r *publicationRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Publication{}).Where("code = ?", code).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *publicationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Publication, error) {
	var pubs []models.Publication
	if err := newestFirst(r.read.WithContext(ctx).Preload("User")).
		Where("user_id = ?", userID).
		Find(&pubs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pubs, nil
}

// Feed returns one window of the publications written by userID or by anyone userID follows.
func (r *publicationRepository) Feed(ctx context.Context, userID uint, limit, offset int) ([]models.Publication, error) {
	var pubs []models.Publication
	following := r.read.Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", userID)
	if err := newestFirst(r.read.WithContext(ctx).Preload("User")).
		Where("user_id = ? OR user_id IN (?)", userID, following).
		Limit(limit).
		Offset(offset).
		Find(&pubs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return pubs, nil
}

func (r *publicationRepository) Create(ctx context.Context, pub *models.Publication) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(pub).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("code", "A publication with this code already exists")
		}
		if isForeignKeyError(err) {
			return models.NewNotFoundError("User", pub.UserID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update writes the changed columns plus the audit columns. No changes, no statement.
func (r *publicationRepository) Update(ctx context.Context, pub *models.Publication, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(pub).
		Omit(clause.Associations).
		Select(models.WithAuditFields(fields)).
		Updates(pub)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Publication", pub.Code)
	}
	return nil
}

// Delete removes the publication together with its likes and comments. Callers
// run it inside a transaction so the three statements commit as one.
func (r *publicationRepository) Delete(ctx context.Context, code string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("publication_code = ?", code).Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Where("publication_code = ?", code).Delete(&models.Comment{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	res := db.Where("code = ?", code).Delete(&models.Publication{})
	if res.Error != nil {
		if isForeignKeyError(res.Error) {
			return models.NewConflictError("publication", "Publication is still referenced")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Publication", code)
	}
	return nil
}
