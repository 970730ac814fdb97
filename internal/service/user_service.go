package service

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unicode/utf8"

	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/observability"
	"instaclone/internal/repository"
	"instaclone/internal/storage"
	"instaclone/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	// SearchLimit caps user search results.
	SearchLimit = 20
	// signupEmailMaxLength is stricter than the column width.
	signupEmailMaxLength = 100
)

var errBadCredentials = models.NewUnauthorizedError("No active account found with the given credentials")

// UserService manages accounts, profiles and avatars.
type UserService struct {
	users    repository.UserRepository
	tx       repository.Transactor
	images   storage.ImageStore
	hashCost int
}

type CreateUserInput struct {
	Username       string
	Email          string
	Password       string
	RepeatPassword string
	FirstName      string
	LastName       string
}

func NewUserService(users repository.UserRepository, tx repository.Transactor, images storage.ImageStore) *UserService {
	return &UserService{
		users:    users,
		tx:       tx,
		images:   images,
		hashCost: bcrypt.DefaultCost,
	}
}

// CreateUser registers an active account and adds it to the default groups.
func (s *UserService) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return s.createUser(ctx, in, false)
}

// CreateSuperuser registers an active staff superuser.
func (s *UserService) CreateSuperuser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	return s.createUser(ctx, in, true)
}

func (s *UserService) createUser(ctx context.Context, in CreateUserInput, superuser bool) (_ *models.User, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "UserService", "CreateUser")
	defer func() { finish(err) }()

	fields := map[string]string{}
	if in.Password != in.RepeatPassword {
		fields["password"] = "Password fields didn't match."
	} else if err := validation.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if utf8.RuneCountInString(in.Email) > signupEmailMaxLength {
		fields["email"] = "Ensure this field has no more than 100 characters."
	}

	now := time.Now().UTC()
	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		IsActive:    true,
		IsStaff:     superuser,
		IsSuperuser: superuser,
		DateJoined:  now,
		UpdatedAt:   now,
	}
	user.Normalize()
	if err := models.Validate(user, models.ValidateOptions{}); err != nil {
		var appErr *models.AppError
		if !errors.As(err, &appErr) {
			return nil, err
		}
		for k, v := range appErr.Fields {
			if _, ok := fields[k]; !ok {
				fields[k] = v
			}
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	user.Password = string(hash)

	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		existing, err := repos.Users.GetByEmail(ctx, user.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			return models.NewConflictError("email", "A user with that email already exists")
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		return repos.Groups.AddUserToGroups(ctx, user, models.DefaultGroups)
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user created",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.String("username", user.Username),
		slog.Bool("superuser", superuser),
	)
	observability.RecordDomainEvent("user_created")
	return user, nil
}

// GetUserByID is served from the profile cache when available.
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetUser(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

// SearchUsers matches active users by username or name.
func (s *UserService) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	users, err := s.users.Search(ctx, term, SearchLimit)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// UpdateUser applies the profile changes that differ from the stored values.
func (s *UserService) UpdateUser(ctx context.Context, actor *models.User, username string, changes models.UserChanges) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(actor, user.ID); err != nil {
		return nil, err
	}
	changed := changes.Apply(user)
	if len(changed) == 0 {
		return user, nil
	}
	if err := models.Validate(user, models.ValidateOptions{Include: changed}); err != nil {
		return nil, err
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user, changed); err != nil {
		return nil, err
	}
	return user, nil
}

// UploadAvatar replaces the user's avatar. The new image is uploaded and the
// row written before the previous image is destroyed; if any step fails the
// new upload is removed and the stored avatar is left untouched.
func (s *UserService) UploadAvatar(ctx context.Context, actor *models.User, username string, file storage.Upload) (_ *models.User, err error) {
	ctx, finish := observability.StartServiceSpan(ctx, "UserService", "UploadAvatar")
	defer func() { finish(err) }()

	if len(file.Content) == 0 {
		return nil, models.NewFieldValidationError(map[string]string{"avatar": fileRequiredText})
	}

	var result *models.User
	err = s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, user.ID); err != nil {
			return err
		}
		oldAvatar := user.Avatar
		url, err := s.images.Upload(ctx, file, storage.FolderAvatars)
		if err != nil {
			return externalError(err)
		}
		user.Avatar = url
		user.UpdatedAt = time.Now().UTC()
		if err := repos.Users.Update(ctx, user, []string{"avatar"}); err != nil {
			destroyQuietly(ctx, s.images, storage.ExtractPublicID(url))
			return err
		}
		if oldAvatar != "" {
			if err := s.images.Destroy(ctx, storage.ExtractPublicID(oldAvatar)); err != nil {
				destroyQuietly(ctx, s.images, storage.ExtractPublicID(url))
				return externalError(err)
			}
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveAvatar destroys the stored avatar and clears the field.
func (s *UserService) RemoveAvatar(ctx context.Context, actor *models.User, username string) (*models.User, error) {
	var result *models.User
	err := s.tx.WithinTransaction(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if err := requireOwner(actor, user.ID); err != nil {
			return err
		}
		if user.Avatar == "" {
			return models.NewFieldValidationError(map[string]string{"avatar": "The user has no avatar."})
		}
		if err := s.images.Destroy(ctx, storage.ExtractPublicID(user.Avatar)); err != nil {
			return externalError(err)
		}
		user.Avatar = ""
		user.UpdatedAt = time.Now().UTC()
		if err := repos.Users.Update(ctx, user, []string{"avatar"}); err != nil {
			return err
		}
		result = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Authenticate checks an email and password pair and stamps last_login.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errBadCredentials
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user, []string{"last_login"}); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to record last login",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("error", err.Error()),
		)
	}
	return user, nil
}

// SetSuperuser grants or revokes superuser and staff status.
func (s *UserService) SetSuperuser(ctx context.Context, username string, superuser bool) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.IsSuperuser, user.IsStaff = superuser, superuser
	if err := s.users.Update(ctx, user, []string{"is_superuser", "is_staff"}); err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive activates or deactivates an account.
func (s *UserService) SetActive(ctx context.Context, username string, active bool) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.IsActive = active
	if err := s.users.Update(ctx, user, []string{"is_active"}); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListSuperusers(ctx context.Context) ([]models.User, error) {
	return s.users.ListSuperusers(ctx)
}
