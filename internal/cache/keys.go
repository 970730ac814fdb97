package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix        = "user:%d"
	PermissionsKeyPrefix = "perms:user:%d"
	WSTicketPrefix       = "ws_ticket:%s"
)

const (
	UserTTL        = 5 * time.Minute
	PermissionsTTL = 5 * time.Minute
	WSTicketTTL    = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PermissionsKey(userID uint) string {
	return fmt.Sprintf(PermissionsKeyPrefix, userID)
}

func WSTicketKey(ticket string) string {
	return fmt.Sprintf(WSTicketPrefix, ticket)
}

// Invalidate deletes keys, ignoring errors; a stale entry expires with its TTL.
func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateUser drops the cached profile and permission set of a user.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID), PermissionsKey(userID))
}
