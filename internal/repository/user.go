// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"instaclone/internal/cache"
	"instaclone/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, fields []string) error
	Search(ctx context.Context, term string, limit int) ([]models.User, error)
	Recommended(ctx context.Context, userID uint, limit int) ([]models.User, error)
	ListSuperusers(ctx context.Context) ([]models.User, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	conn
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{conn: newConn(db)}
}

// GetByID is served through the cache; the returned user never carries the password hash.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.read.WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	username = strings.ToLower(strings.TrimSpace(username))
	if err := r.read.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFoundOr(err, "User", username)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no account uses the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.read.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			field := violatedColumn(err, "username", "email")
			return models.NewConflictError(field, "A user with that "+field+" already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// Update persists only the named columns. An empty field list is a no-op.
func (r *userRepository) Update(ctx context.Context, user *models.User, fields []string) error {
	if len(fields) == 0 {
		return nil
	}
	fields = append(append([]string{}, fields...), "updated_at")
	if err := r.db.WithContext(ctx).Model(user).Select(fields).Updates(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			field := violatedColumn(err, "username", "email")
			return models.NewConflictError(field, "A user with that "+field+" already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// Search matches term case-insensitively against username and names of active
// users. Wildcards in term match literally.
func (r *userRepository) Search(ctx context.Context, term string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
	if err := r.read.WithContext(ctx).
		Where("is_active = ?", true).
		Where(`LOWER(username) LIKE ? ESCAPE '\' OR LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// Recommended lists active users that userID neither is nor follows, lowest id first.
func (r *userRepository) Recommended(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	var users []models.User
	following := r.read.Model(&models.Follow{}).Select("followed_id").Where("follower_id = ?", userID)
	if err := r.read.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id <> ?", userID).
		Where("id NOT IN (?)", following).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListSuperusers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.read.WithContext(ctx).Where("is_superuser = ?", true).Order("id ASC").Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.read.WithContext(ctx).Model(&models.User{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
