package repository

import (
	"errors"
	"fmt"
	"testing"

	"instaclone/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstraintClassification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		unique bool
		fk     bool
		check  bool
	}{
		{"pg unique", &pgconn.PgError{Code: "23505"}, true, false, false},
		{"pg fk", &pgconn.PgError{Code: "23503"}, false, true, false},
		{"pg check", &pgconn.PgError{Code: "23514"}, false, false, true},
		{"pg wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true, false, false},
		{"pg other", &pgconn.PgError{Code: "42P01", Message: "unique constraint"}, false, false, false},
		{"sqlite unique", errors.New("UNIQUE constraint failed: users.email"), true, false, false},
		{"sqlite fk", errors.New("FOREIGN KEY constraint failed"), false, true, false},
		{"sqlite check", errors.New("CHECK constraint failed: chk_follows_not_self"), false, false, true},
		{"plain", errors.New("connection refused"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, isUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, isForeignKeyError(tt.err))
			assert.Equal(t, tt.check, isCheckConstraintError(tt.err))
		})
	}
}

func TestViolatedColumn(t *testing.T) {
	assert.Equal(t, "email", violatedColumn(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"}, "username", "email"))
	assert.Equal(t, "username", violatedColumn(errors.New("UNIQUE constraint failed: users.username"), "username", "email"))
	assert.Equal(t, "username", violatedColumn(errors.New("something else"), "username", "email"))
}

func TestNotFoundOr(t *testing.T) {
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(notFoundOr(gorm.ErrRecordNotFound, "User", 1)))
	assert.Equal(t, models.CodeInternal, models.ErrorCode(notFoundOr(errors.New("boom"), "User", 1)))
}
