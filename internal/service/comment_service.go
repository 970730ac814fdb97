package service

import (
	"context"

	"instaclone/internal/models"
	"instaclone/internal/repository"
)

// CommentService adds, lists and removes comments on publications.
type CommentService struct {
	comments     repository.CommentRepository
	publications repository.PublicationRepository
	events       EventPublisher
}

func NewCommentService(comments repository.CommentRepository, publications repository.PublicationRepository, events EventPublisher) *CommentService {
	return &CommentService{
		comments:     comments,
		publications: publications,
		events:       events,
	}
}

// AddComment normalizes and validates the text before storing it.
func (s *CommentService) AddComment(ctx context.Context, actor *models.User, code, text string) (*models.Comment, error) {
	if err := requireActive(actor); err != nil {
		return nil, err
	}
	comment := &models.Comment{Comment: text, PublicationCode: code, UserID: actor.ID}
	comment.Normalize()
	if err := models.Validate(comment, models.ValidateOptions{}); err != nil {
		return nil, err
	}

	pub, err := s.publications.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	models.ApplyAudit(comment, actor.ID, true)
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.User = *actor

	if pub.UserID != actor.ID {
		publish(ctx, s.events, pub.UserID, EventCommentAdded, map[string]interface{}{
			"publication": code,
			"comment_id":  comment.ID,
			"user":        actor.Summary(),
		})
	}
	return comment, nil
}

// ListComments returns a publication's comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, code string) ([]models.Comment, error) {
	if _, err := s.publications.GetByCode(ctx, code); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPublication(ctx, code)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// RemoveComment lets the comment author, the publication owner or a superuser delete a comment.
func (s *CommentService) RemoveComment(ctx context.Context, actor *models.User, id uint) error {
	if err := requireActive(actor); err != nil {
		return err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if actor.ID != comment.UserID && actor.ID != comment.Publication.UserID && !actor.IsSuperuser {
		return models.NewForbiddenError("You do not have permission to perform this action")
	}
	return s.comments.Delete(ctx, id)
}
