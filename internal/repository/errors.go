package repository

import (
	"errors"
	"strings"

	"instaclone/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repositories classify.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func pgCode(err error) (string, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName
	}
	return "", ""
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, _ := pgCode(err); code != "" {
		return code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// isForeignKeyError reports a restrict/no-action foreign key violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if code, _ := pgCode(err); code != "" {
		return code == pgForeignKeyViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, pgForeignKeyViolation)
}

// isCheckConstraintError reports a CHECK violation, e.g. a self-follow.
func isCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code, _ := pgCode(err); code != "" {
		return code == pgCheckViolation
	}
	return strings.Contains(strings.ToLower(err.Error()), "check constraint")
}

// violatedColumn guesses which of candidates a constraint error refers to,
// using the constraint name on Postgres and the message on sqlite.
func violatedColumn(err error, candidates ...string) string {
	_, constraint := pgCode(err)
	haystack := strings.ToLower(constraint + " " + err.Error())
	for _, c := range candidates {
		if strings.Contains(haystack, c) {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// notFoundOr maps gorm.ErrRecordNotFound to a NOT_FOUND error and anything else to INTERNAL_ERROR.
func notFoundOr(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}
