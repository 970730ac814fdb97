package repository

import (
	"context"
	"sort"

	"instaclone/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GroupRepository manages groups, permissions and memberships.
type GroupRepository interface {
	EnsureDefaults(ctx context.Context) error
	AddUserToGroups(ctx context.Context, user *models.User, names []string) error
	PermissionCodenames(ctx context.Context, userID uint) ([]string, error)
}

type groupRepository struct {
	conn
}

// NewGroupRepository returns a new GroupRepository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{conn: newConn(db)}
}

// EnsureDefaults creates the permission catalogue and the default groups
// with their grants. It is idempotent.
func (r *groupRepository) EnsureDefaults(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := models.AllPermissions()
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "codename"}},
			DoNothing: true,
		}).Create(&perms).Error; err != nil {
			return models.NewInternalError(err)
		}

		grants := models.DefaultGroupPermissions()
		names := make([]string, 0, len(grants))
		for name := range grants {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			group := models.Group{Name: name}
			if err := tx.Where(models.Group{Name: name}).FirstOrCreate(&group).Error; err != nil {
				return models.NewInternalError(err)
			}
			var granted []models.Permission
			if err := tx.Where("codename IN ?", grants[name]).Find(&granted).Error; err != nil {
				return models.NewInternalError(err)
			}
			if err := tx.Model(&group).Association("Permissions").Append(&granted); err != nil {
				return models.NewInternalError(err)
			}
		}
		return nil
	})
}

// AddUserToGroups links user to the named groups. Unknown names are ignored.
func (r *groupRepository) AddUserToGroups(ctx context.Context, user *models.User, names []string) error {
	var groups []models.Group
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&groups).Error; err != nil {
		return models.NewInternalError(err)
	}
	if len(groups) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(user).Omit("Groups.*").Association("Groups").Append(&groups); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// PermissionCodenames returns the distinct codenames granted through the user's groups, sorted.
func (r *groupRepository) PermissionCodenames(ctx context.Context, userID uint) ([]string, error) {
	var codenames []string
	if err := r.read.WithContext(ctx).
		Table("permissions").
		Distinct("permissions.codename").
		Joins("JOIN group_permissions gp ON gp.permission_id = permissions.id").
		Joins("JOIN user_groups ug ON ug.group_id = gp.group_id").
		Where("ug.user_id = ?", userID).
		Order("permissions.codename").
		Pluck("permissions.codename", &codenames).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return codenames, nil
}
