package service

import (
	"context"

	"instaclone/internal/models"
	"instaclone/internal/repository"
)

// Feed and recommendation sizes.
const (
	FeedPageSize         = 4
	RecommendedUserLimit = 4
)

// FeedService builds a user's home feed and follow suggestions.
type FeedService struct {
	publications repository.PublicationRepository
	users        repository.UserRepository
}

func NewFeedService(publications repository.PublicationRepository, users repository.UserRepository) *FeedService {
	return &FeedService{publications: publications, users: users}
}

// Feed returns one page of the publications written by user or by anyone
// user follows, newest first. Pages start at 1; a page past the end is empty.
func (s *FeedService) Feed(ctx context.Context, user *models.User, page int) ([]models.Publication, error) {
	if page < 1 {
		page = 1
	}
	pubs, err := s.publications.Feed(ctx, user.ID, FeedPageSize, (page-1)*FeedPageSize)
	if err != nil {
		return nil, err
	}
	if pubs == nil {
		pubs = []models.Publication{}
	}
	return pubs, nil
}

// RecommendedUsers lists up to four active users that user does not follow yet.
func (s *FeedService) RecommendedUsers(ctx context.Context, user *models.User) ([]models.User, error) {
	users, err := s.users.Recommended(ctx, user.ID, RecommendedUserLimit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}
