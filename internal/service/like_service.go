package service

import (
	"context"

	"instaclone/internal/models"
	"instaclone/internal/repository"
)

// LikeService records at most one like per user and publication.
type LikeService struct {
	likes        repository.LikeRepository
	publications repository.PublicationRepository
	events       EventPublisher
}

func NewLikeService(likes repository.LikeRepository, publications repository.PublicationRepository, events EventPublisher) *LikeService {
	return &LikeService{
		likes:        likes,
		publications: publications,
		events:       events,
	}
}

// AddLike fails with CONFLICT when actor already likes the publication.
func (s *LikeService) AddLike(ctx context.Context, actor *models.User, code string) (*models.Like, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	pub, err := s.publications.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	liked, err := s.likes.Exists(ctx, actor.ID, code)
	if err != nil {
		return nil, err
	}
	if liked {
		return nil, models.NewConflictError("publication", "You already like this publication")
	}

	like := &models.Like{PublicationCode: code, UserID: actor.ID}
	models.ApplyAudit(like, actor.ID, true)
	if err := s.likes.Create(ctx, like); err != nil {
		return nil, err
	}

	if pub.UserID != actor.ID {
		publish(ctx, s.events, pub.UserID, EventPublicationLiked, map[string]interface{}{
			"publication": code,
			"user":        actor.Summary(),
		})
	}
	return like, nil
}

// RemoveLike fails with NOT_FOUND when there is nothing to remove.
func (s *LikeService) RemoveLike(ctx context.Context, actor *models.User, code string) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	return s.likes.Delete(ctx, actor.ID, code)
}

func (s *LikeService) CountLikes(ctx context.Context, code string) (int64, error) {
	if _, err := s.publications.GetByCode(ctx, code); err != nil {
		return 0, err
	}
	return s.likes.Count(ctx, code)
}

func (s *LikeService) IsLiked(ctx context.Context, userID uint, code string) (bool, error) {
	return s.likes.Exists(ctx, userID, code)
}
