package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"

	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/observability"
	"instaclone/internal/repository"
	"instaclone/internal/storage"

	"go.opentelemetry.io/otel/attribute"
)

const (
	codeAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	maxCodeAttempts  = 5
	fileRequiredText = "No file was submitted."
)

// PublicationService owns publication lifecycles, including their images.
type PublicationService struct {
	publications repository.PublicationRepository
	users        repository.UserRepository
	tx           repository.Transactor
	images       storage.ImageStore
	newCode      func() (string, error)
}

type CreatePublicationInput struct {
	// OwnerID defaults to the acting user. Only superusers may post for someone else.
	OwnerID     uint
	Image       storage.Upload
	Description string
}

type UpdatePublicationInput struct {
	Description *string
	Image       *storage.Upload
}

func NewPublicationService(
	publications repository.PublicationRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	images storage.ImageStore,
) *PublicationService {
	return &PublicationService{
		publications: publications,
		users:        users,
		tx:           tx,
		images:       images,
		newCode:      GenerateCode,
	}
}

// GenerateCode returns a random six character alphanumeric code.
func GenerateCode() (string, error) {
	size := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, models.PublicationCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

func (s *PublicationService) GetPublication(ctx context.Context, code string) (*models.Publication, error) {
	return s.publications.GetByCode(ctx, code)
}

// ListPublications returns a user's publications, newest first.
func (s *PublicationService) ListPublications(ctx context.Context, username string) ([]models.Publication, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	pubs, err := s.publications.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if pubs == nil {
		pubs = []models.Publication{}
	}
	return pubs, nil
}

// CreatePublication uploads the image and stores the publication in one
// transaction. If the insert fails the uploaded object is removed again.
func (s *PublicationService) CreatePublication(ctx context.Context, actor *models.User, in CreatePublicationInput) (_ *models.Publication, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "PublicationService", "CreatePublication")
	defer func() { finish(err) }()

	if err := requireActive(actor); err != nil {
		return nil, err
	}
	owner := actor
	if in.OwnerID != 0 && in.OwnerID != actor.ID {
		if !actor.IsSuperuser {
			return nil, models.NewForbiddenError("You can only publish on your own behalf")
		}
		if owner, err = s.users.GetByID(ctx, in.OwnerID); err != nil {
			return nil, err
		}
	}
	if !owner.IsActive {
		return nil, models.NewForbiddenError("The owner account is inactive")
	}

	pub := &models.Publication{Description: in.Description, UserID: owner.ID}
	pub.Normalize()
	if err := models.Validate(pub, models.ValidateOptions{Exclude: []string{"code", "image"}}); err != nil {
		return nil, err
	}
	if len(in.Image.Content) == 0 {
		return nil, models.NewFieldValidationError(map[string]string{"image": fileRequiredText})
	}

	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		code, err := s.uniqueCode(ctx, repos.Publications)
		if err != nil {
			return err
		}
		url, err := s.images.Upload(ctx, in.Image, storage.FolderPublications)
		if err != nil {
			return externalError(err)
		}
		pub.Code, pub.Image = code, url
		models.ApplyAudit(pub, actor.ID, true)
		if err := repos.Publications.Create(ctx, pub); err != nil {
			destroyQuietly(ctx, s.images, storage.ExtractPublicID(url))
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pub.User = *owner
	middleware.Logger.InfoContext(ctx, "publication created",
		slog.String("code", pub.Code),
		slog.Uint64("user_id", uint64(owner.ID)),
	)
	observability.RecordDomainEvent("publication_created")
	return pub, nil
}

// uniqueCode draws codes until one is free. The primary key still arbitrates
// between concurrent writers.
func (s *PublicationService) uniqueCode(ctx context.Context, repo repository.PublicationRepository) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return "", models.NewInternalError(err)
		}
		taken, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", models.NewConflictError("code", "Could not allocate a unique publication code")
}

// UpdatePublication applies the changes that differ from the stored values.
// A new image is uploaded first and the old one destroyed before the row is
// written; if the destroy fails nothing is persisted.
func (s *PublicationService) UpdatePublication(ctx context.Context, actor *models.User, code string, in UpdatePublicationInput) (_ *models.Publication, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "PublicationService", "UpdatePublication",
		attribute.String("publication.code", code))
	defer func() { finish(err) }()

	var result *models.Publication
	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		pub, err := repos.Publications.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, pub.UserID); err != nil {
			return err
		}

		changes := models.PublicationChanges{Description: in.Description}
		oldImage := pub.Image
		var newImage string
		if in.Image != nil {
			if len(in.Image.Content) == 0 {
				return models.NewFieldValidationError(map[string]string{"image": fileRequiredText})
			}
			if newImage, err = s.images.Upload(ctx, *in.Image, storage.FolderPublications); err != nil {
				return externalError(err)
			}
			changes.Image = &newImage
		}
		discardNew := func() {
			if newImage != "" {
				destroyQuietly(ctx, s.images, storage.ExtractPublicID(newImage))
			}
		}

		changed := changes.Apply(pub)
		if len(changed) > 0 {
			if err := models.Validate(pub, models.ValidateOptions{Include: changed}); err != nil {
				discardNew()
				return err
			}
		}
		if newImage != "" && oldImage != "" {
			if err := s.images.Destroy(ctx, storage.ExtractPublicID(oldImage)); err != nil {
				discardNew()
				return externalError(err)
			}
		}
		if len(changed) > 0 {
			models.ApplyAudit(pub, actor.ID, false)
			if err := repos.Publications.Update(ctx, pub, changed); err != nil {
				discardNew()
				return err
			}
		}
		result = pub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeletePublication removes the publication with its likes and comments, then
// its image. The rows stay when the image cannot be destroyed.
func (s *PublicationService) DeletePublication(ctx context.Context, actor *models.User, code string) (err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "PublicationService", "DeletePublication",
		attribute.String("publication.code", code))
	defer func() { finish(err) }()

	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		pub, err := repos.Publications.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, pub.UserID); err != nil {
			return err
		}
		if err := repos.Publications.Delete(ctx, code); err != nil {
			return err
		}
		if pub.Image != "" {
			if err := s.images.Destroy(ctx, storage.ExtractPublicID(pub.Image)); err != nil {
				return externalError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	middleware.Logger.InfoContext(ctx, "publication deleted",
		slog.String("code", code),
		slog.Uint64("actor_id", uint64(actor.ID)),
	)
	return nil
}
