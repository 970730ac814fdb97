package service

import (
	"context"
	"sort"

	"instaclone/internal/cache"
	"instaclone/internal/models"
	"instaclone/internal/repository"
)

// Policy answers whether a user may perform an action on a kind of resource.
type Policy struct {
	groups repository.GroupRepository
}

// NewPolicy returns a Policy reading grants through groups.
func NewPolicy(groups repository.GroupRepository) *Policy {
	return &Policy{groups: groups}
}

// CanPerform reports whether actor holds the permission for action on resource.
// Inactive users never can; superusers always can.
func (p *Policy) CanPerform(ctx context.Context, actor *models.User, action models.Action, resource models.Resource) (bool, error) {
	if actor == nil || !actor.IsActive {
		return false, nil
	}
	if actor.IsSuperuser {
		return true, nil
	}
	perms, err := p.Permissions(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	want := models.Codename(action, resource)
	i := sort.SearchStrings(perms, want)
	return i < len(perms) && perms[i] == want, nil
}

// Permissions returns the sorted codenames granted to userID through its groups.
func (p *Policy) Permissions(ctx context.Context, userID uint) ([]string, error) {
	var perms []string
	err := cache.Aside(ctx, cache.PermissionsKey(userID), &perms, cache.PermissionsTTL, func() error {
		var err error
		perms, err = p.groups.PermissionCodenames(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return perms, nil
}
