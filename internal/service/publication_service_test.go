package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"instaclone/internal/models"
	"instaclone/internal/repository"
	"instaclone/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// publicationRepoStub is a stub for repository.PublicationRepository.
type publicationRepoStub struct {
	repository.PublicationRepository
	codeExistsFn func(context.Context, string) (bool, error)
	createFn     func(context.Context, *models.Publication) error
}

func (s *publicationRepoStub) CodeExists(ctx context.Context, code string) (bool, error) {
	return s.codeExistsFn(ctx, code)
}
func (s *publicationRepoStub) Create(ctx context.Context, pub *models.Publication) error {
	return s.createFn(ctx, pub)
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		assert.True(t, models.ValidPublicationCode(code), code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 190)
}

func TestPublicationService_Create(t *testing.T) {
	env := newEnv(t)
	svc := env.publicationService()
	ctx := context.Background()

	owner := env.user(t, "owner")
	other := env.user(t, "other")
	root := env.user(t, "root", superuser)
	ghost := env.user(t, "ghost", inactive)

	t.Run("stores image and row", func(t *testing.T) {
		pub, err := svc.CreatePublication(ctx, owner, CreatePublicationInput{Image: upload(), Description: "my FIRST   post "})
		require.NoError(t, err)
		assert.True(t, models.ValidPublicationCode(pub.Code))
		assert.Equal(t, "My first post", pub.Description)
		assert.True(t, env.images.Has(pub.Image))
		assert.Contains(t, pub.Image, "/instaclone/publications/")

		stored, err := env.repos.Publications.GetByCode(ctx, pub.Code)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, stored.UserID)
		require.NotNil(t, stored.CreatedByID)
		assert.Equal(t, owner.ID, *stored.CreatedByID)
	})

	t.Run("someone else's behalf is forbidden", func(t *testing.T) {
		_, err := svc.CreatePublication(ctx, other, CreatePublicationInput{OwnerID: owner.ID, Image: upload()})
		assertCode(t, models.CodeForbidden, err)
	})

	t.Run("superuser may post for an owner", func(t *testing.T) {
		pub, err := svc.CreatePublication(ctx, root, CreatePublicationInput{OwnerID: owner.ID, Image: upload()})
		require.NoError(t, err)
		assert.Equal(t, owner.ID, pub.UserID)
		assert.Equal(t, root.ID, *pub.CreatedByID)
	})

	t.Run("inactive owner", func(t *testing.T) {
		_, err := svc.CreatePublication(ctx, root, CreatePublicationInput{OwnerID: ghost.ID, Image: upload()})
		assertCode(t, models.CodeForbidden, err)
		_, err = svc.CreatePublication(ctx, ghost, CreatePublicationInput{Image: upload()})
		assertCode(t, models.CodeForbidden, err)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.CreatePublication(ctx, owner, CreatePublicationInput{Image: upload(), Description: strings.Repeat("x", 101)})
		assertCode(t, models.CodeValidation, err)
		assertField(t, err, "description")

		_, err = svc.CreatePublication(ctx, owner, CreatePublicationInput{})
		assertCode(t, models.CodeValidation, err)
		assertField(t, err, "image")
	})

	t.Run("upload failure rolls back", func(t *testing.T) {
		before := env.images.Count()
		env.images.UploadErr = errors.New("503 from provider")
		defer func() { env.images.UploadErr = nil }()

		_, err := svc.CreatePublication(ctx, owner, CreatePublicationInput{Image: upload()})
		assertCode(t, models.CodeExternalService, err)
		assert.Equal(t, before, env.images.Count())

		pubs, err := svc.ListPublications(ctx, "owner")
		require.NoError(t, err)
		assert.Len(t, pubs, 2)
	})
}

func TestPublicationService_CodeCollisions(t *testing.T) {
	env := newEnv(t)
	svc := env.publicationService()
	ctx := context.Background()
	owner := env.user(t, "owner")

	existing := env.publish(t, owner, "")

	t.Run("taken codes are skipped", func(t *testing.T) {
		queue := []string{existing.Code, "Fresh1"}
		svc.newCode = func() (string, error) {
			code := queue[0]
			queue = queue[1:]
			return code, nil
		}
		pub, err := svc.CreatePublication(ctx, owner, CreatePublicationInput{Image: upload()})
		require.NoError(t, err)
		assert.Equal(t, "Fresh1", pub.Code)
	})

	t.Run("gives up after five attempts", func(t *testing.T) {
		calls := 0
		svc.newCode = func() (string, error) {
			calls++
			return existing.Code, nil
		}
		_, err := svc.CreatePublication(ctx, owner, CreatePublicationInput{Image: upload()})
		assertCode(t, models.CodeConflict, err)
		assert.Equal(t, maxCodeAttempts, calls)
	})
}

func TestPublicationService_CreateInsertFailureRemovesUpload(t *testing.T) {
	env := newEnv(t)
	owner := env.user(t, "owner")

	pubs := &publicationRepoStub{
		codeExistsFn: func(context.Context, string) (bool, error) { return false, nil },
		createFn: func(context.Context, *models.Publication) error {
			return models.NewConflictError("code", "A publication with this code already exists")
		},
	}
	tx := fakeTx{repos: repository.Repositories{Publications: pubs}}
	svc := NewPublicationService(pubs, env.repos.Users, tx, env.images)

	_, err := svc.CreatePublication(context.Background(), owner, CreatePublicationInput{Image: upload()})
	assertCode(t, models.CodeConflict, err)
	assert.Equal(t, 0, env.images.Count())
	assert.Len(t, env.images.Destroyed, 1)
}

func TestPublicationService_Update(t *testing.T) {
	env := newEnv(t)
	svc := env.publicationService()
	ctx := context.Background()

	owner := env.user(t, "owner")
	other := env.user(t, "other")
	root := env.user(t, "root", superuser)
	pub := env.publish(t, owner, "Original")

	desc := func(s string) *string { return &s }

	t.Run("non owner", func(t *testing.T) {
		_, err := svc.UpdatePublication(ctx, other, pub.Code, UpdatePublicationInput{Description: desc("Hijack")})
		assertCode(t, models.CodeForbidden, err)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := svc.UpdatePublication(ctx, owner, "zzzzzz", UpdatePublicationInput{Description: desc("x")})
		assertCode(t, models.CodeNotFound, err)
	})

	t.Run("no changes is a no-op", func(t *testing.T) {
		before, err := env.repos.Publications.GetByCode(ctx, pub.Code)
		require.NoError(t, err)
		got, err := svc.UpdatePublication(ctx, owner, pub.Code, UpdatePublicationInput{Description: desc("Original  ")})
		require.NoError(t, err)
		assert.Equal(t, "Original", got.Description)

		after, err := env.repos.Publications.GetByCode(ctx, pub.Code)
		require.NoError(t, err)
		assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	})

	t.Run("superuser edits description", func(t *testing.T) {
		got, err := svc.UpdatePublication(ctx, root, pub.Code, UpdatePublicationInput{Description: desc("edited BY admin")})
		require.NoError(t, err)
		assert.Equal(t, "Edited by admin", got.Description)

		stored, err := env.repos.Publications.GetByCode(ctx, pub.Code)
		require.NoError(t, err)
		assert.Equal(t, "Edited by admin", stored.Description)
		assert.Equal(t, root.ID, *stored.UpdatedByID)
		assert.Equal(t, owner.ID, *stored.CreatedByID)
	})

	t.Run("description too long", func(t *testing.T) {
		_, err := svc.UpdatePublication(ctx, owner, pub.Code, UpdatePublicationInput{Description: desc(strings.Repeat("y", 150))})
		assertCode(t, models.CodeValidation, err)
	})

	t.Run("image replacement destroys the old image", func(t *testing.T) {
		oldImage := pub.Image
		got, err := svc.UpdatePublication(ctx, owner, pub.Code, UpdatePublicationInput{Image: &storage.Upload{Content: []byte("new")}})
		require.NoError(t, err)
		assert.NotEqual(t, oldImage, got.Image)
		assert.False(t, env.images.Has(oldImage))
		assert.True(t, env.images.Has(got.Image))
		pub = got
	})

	t.Run("failed destroy leaves the row untouched", func(t *testing.T) {
		oldImage := pub.Image
		oldID := storage.ExtractPublicID(oldImage)
		env.images.FailDestroy = func(id string) error {
			if id == oldID {
				return errors.New("provider timeout")
			}
			return nil
		}
		defer func() { env.images.FailDestroy = nil }()
		objects := env.images.Count()

		_, err := svc.UpdatePublication(ctx, owner, pub.Code, UpdatePublicationInput{
			Description: desc("should not stick"),
			Image:       &storage.Upload{Content: []byte("newer")},
		})
		assertCode(t, models.CodeExternalService, err)

		stored, err := env.repos.Publications.GetByCode(ctx, pub.Code)
		require.NoError(t, err)
		assert.Equal(t, oldImage, stored.Image)
		assert.Equal(t, "Edited by admin", stored.Description)
		assert.True(t, env.images.Has(oldImage))
		assert.Equal(t, objects, env.images.Count(), "the new upload is cleaned up")
	})
}

func TestPublicationService_Delete(t *testing.T) {
	env := newEnv(t)
	svc := env.publicationService()
	likes := NewLikeService(env.repos.Likes, env.repos.Publications, nil)
	comments := NewCommentService(env.repos.Comments, env.repos.Publications, nil)
	ctx := context.Background()

	owner := env.user(t, "owner")
	fan := env.user(t, "fan")

	t.Run("non owner", func(t *testing.T) {
		pub := env.publish(t, owner, "")
		assertCode(t, models.CodeForbidden, svc.DeletePublication(ctx, fan, pub.Code))
	})

	t.Run("failed destroy keeps everything", func(t *testing.T) {
		pub := env.publish(t, owner, "")
		_, err := likes.AddLike(ctx, fan, pub.Code)
		require.NoError(t, err)

		env.images.DestroyErr = errors.New("provider down")
		err = svc.DeletePublication(ctx, owner, pub.Code)
		env.images.DestroyErr = nil
		assertCode(t, models.CodeExternalService, err)

		_, err = svc.GetPublication(ctx, pub.Code)
		require.NoError(t, err)
		n, err := likes.CountLikes(ctx, pub.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("removes likes comments and image", func(t *testing.T) {
		pub := env.publish(t, owner, "")
		_, err := likes.AddLike(ctx, fan, pub.Code)
		require.NoError(t, err)
		_, err = comments.AddComment(ctx, fan, pub.Code, "nice")
		require.NoError(t, err)

		require.NoError(t, svc.DeletePublication(ctx, owner, pub.Code))

		_, err = svc.GetPublication(ctx, pub.Code)
		assertCode(t, models.CodeNotFound, err)
		assert.False(t, env.images.Has(pub.Image))

		var leftovers int64
		require.NoError(t, env.db.Model(&models.Comment{}).Where("publication_code = ?", pub.Code).Count(&leftovers).Error)
		assert.Zero(t, leftovers)
		require.NoError(t, env.db.Model(&models.Like{}).Where("publication_code = ?", pub.Code).Count(&leftovers).Error)
		assert.Zero(t, leftovers)

		assertCode(t, models.CodeNotFound, svc.DeletePublication(ctx, owner, pub.Code))
	})
}

func TestPublicationService_ListUnknownUser(t *testing.T) {
	env := newEnv(t)
	_, err := env.publicationService().ListPublications(context.Background(), "nobody")
	assertCode(t, models.CodeNotFound, err)
}
