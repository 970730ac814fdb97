package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"instaclone/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedUser *models.User
		expectedCode string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@example.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "testuser", Email: "test@example.com"},
		},
		{
			name:   "Not Found",
			userID: 99,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(99, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, models.ErrorCode(err))
				assert.Nil(t, user)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Username, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		email := "test@example.com"
		rows := sqlmock.NewRows([]string{"id", "email"}).AddRow(1, email)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(email) = $1 ORDER BY "users"."id" LIMIT $2`)).
			WithArgs(email, 1).
			WillReturnRows(rows)

		user, err := repo.GetByEmail(ctx, " Test@Example.com ")
		assert.NoError(t, err)
		assert.NotNil(t, user)
		assert.Equal(t, email, user.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		email := "ghost@example.com"
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(email) = $1`)).
			WithArgs(email, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByEmail(ctx, email)
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user := &models.User{Username: "newuser", Email: "new@example.com"}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		require.NoError(t, repo.Create(ctx, user))
		assert.Equal(t, uint(1), user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate email", func(t *testing.T) {
		user := &models.User{Username: "other", Email: "new@example.com"}

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
		mock.ExpectRollback()

		err := repo.Create(ctx, user)
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, models.CodeConflict, appErr.Code)
		assert.Contains(t, appErr.Fields, "email")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_UpdateNoChanges(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	require.NoError(t, repo.Update(context.Background(), &models.User{ID: 1}, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SearchAndRecommended(t *testing.T) {
	db := newTestDB(t)
	repos := NewRepositories(db)
	ctx := context.Background()

	me := createUser(t, db, "me")
	ana := createUser(t, db, "ana")
	bob := createUser(t, db, "bob")
	cid := createUser(t, db, "cid")
	dan := createUser(t, db, "dan")
	eve := createUser(t, db, "eve")
	fay := createUser(t, db, "fay")
	ghost := createUser(t, db, "ghost")
	require.NoError(t, db.Model(ghost).Update("is_active", false).Error)

	follow(t, db, me, ana)

	recommended, err := repos.Users.Recommended(ctx, me.ID, 4)
	require.NoError(t, err)
	ids := userIDs(recommended)
	assert.Equal(t, []uint{bob.ID, cid.ID, dan.ID, eve.ID}, ids)
	assert.NotContains(t, ids, fay.ID, "capped at four")

	found, err := repos.Users.Search(ctx, "A", 20)
	require.NoError(t, err)
	assert.Equal(t, []uint{ana.ID, dan.ID, fay.ID}, userIDs(found))

	underscore := createUser(t, db, "x_y")
	createUser(t, db, "xzy")
	percent := createUser(t, db, "per%cent")

	found, err = repos.Users.Search(ctx, "x_y", 20)
	require.NoError(t, err)
	assert.Equal(t, []uint{underscore.ID}, userIDs(found))

	found, err = repos.Users.Search(ctx, "%", 20)
	require.NoError(t, err)
	assert.Equal(t, []uint{percent.ID}, userIDs(found))
}
