// Package service holds the business rules of Instaclone. Handlers resolve the
// acting user and call in here; services talk to storage only through the
// repository package and to images only through storage.ImageStore.
package service

import (
	"context"
	"errors"
	"log/slog"

	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/observability"
	"instaclone/internal/storage"
)

// Realtime event types delivered to users.
const (
	EventUserFollowed     = "user_followed"
	EventPublicationLiked = "publication_liked"
	EventCommentAdded     = "comment_added"
)

// EventPublisher delivers a realtime event to one user. Delivery is best effort.
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, userID uint, eventType string, payload map[string]interface{})
}

func publish(ctx context.Context, events EventPublisher, userID uint, eventType string, payload map[string]interface{}) {
	observability.RecordDomainEvent(eventType)
	if events == nil {
		return
	}
	events.PublishUserEvent(ctx, userID, eventType, payload)
}

// requireActive rejects deactivated accounts.
func requireActive(actor *models.User) error {
	if actor == nil || !actor.IsActive {
		return models.NewForbiddenError("Your account is inactive")
	}
	return nil
}

// requireOwner allows the owner of a record or a superuser.
func requireOwner(actor *models.User, ownerID uint) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	if actor.ID != ownerID && !actor.IsSuperuser {
		return models.NewForbiddenError("You do not have permission to perform this action")
	}
	return nil
}

// externalError wraps image store failures that are not already classified.
func externalError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewExternalServiceError("image store", err)
}

// destroyQuietly removes an uploaded object after a failed write. The
// original failure is what the caller reports, so this one is only logged.
func destroyQuietly(ctx context.Context, images storage.ImageStore, publicID string) {
	if err := images.Destroy(ctx, publicID); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove orphaned image",
			slog.String("public_id", publicID),
			slog.String("error", err.Error()),
		)
	}
}
