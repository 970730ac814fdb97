package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"instaclone/internal/models"
	"instaclone/internal/repository"
	"instaclone/internal/storage"
	"instaclone/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordedEvent struct {
	UserID  uint
	Type    string
	Payload map[string]interface{}
}

// eventRecorder captures realtime events instead of delivering them.
type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) PublishUserEvent(_ context.Context, userID uint, eventType string, payload map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{UserID: userID, Type: eventType, Payload: payload})
}

func (r *eventRecorder) all() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

// testEnv wires real repositories over an in-memory sqlite database.
type testEnv struct {
	db     *gorm.DB
	repos  repository.Repositories
	tx     repository.Transactor
	images *testutil.ImageStoreStub
	events *eventRecorder
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	repos := repository.NewRepositories(db)
	require.NoError(t, repos.Groups.EnsureDefaults(context.Background()))
	return &testEnv{
		db:     db,
		repos:  repos,
		tx:     repository.NewTransactor(db),
		images: testutil.NewImageStoreStub(),
		events: &eventRecorder{},
	}
}

func (e *testEnv) user(t *testing.T, username string, opts ...func(*models.User)) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "x",
		IsActive:   true,
		DateJoined: now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, e.repos.Users.Create(context.Background(), u))
	return u
}

func superuser(u *models.User) { u.IsSuperuser = true; u.IsStaff = true }
func inactive(u *models.User) { u.IsActive = false }

func (e *testEnv) publicationService() *PublicationService {
	return NewPublicationService(e.repos.Publications, e.repos.Users, e.tx, e.images)
}

func (e *testEnv) publish(t *testing.T, owner *models.User, description string) *models.Publication {
	t.Helper()
	pub, err := e.publicationService().CreatePublication(context.Background(), owner, CreatePublicationInput{
		Image:       upload(),
		Description: description,
	})
	require.NoError(t, err)
	return pub
}

func upload() storage.Upload {
	return storage.Upload{Filename: "photo.png", ContentType: "image/png", Content: []byte("png-bytes")}
}

// fakeTx runs the unit of work against fixed repositories without a database transaction.
type fakeTx struct {
	repos repository.Repositories
}

func (f fakeTx) WithinTransaction(_ context.Context, fn func(repository.Repositories) error) error {
	return fn(f.repos)
}

func assertCode(t *testing.T, want string, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, want, appErr.Code, appErr.Error())
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Contains(t, appErr.Fields, field)
}
