package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups every store bound to the same connection or transaction.
type Repositories struct {
	Users        UserRepository
	Groups       GroupRepository
	Follows      FollowRepository
	Publications PublicationRepository
	Comments     CommentRepository
	Likes        LikeRepository
}

func repositoriesFor(c conn) Repositories {
	return Repositories{
		Users:        &userRepository{conn: c},
		Groups:       &groupRepository{conn: c},
		Follows:      &followRepository{conn: c},
		Publications: &publicationRepository{conn: c},
		Comments:     &commentRepository{conn: c},
		Likes:        &likeRepository{conn: c},
	}
}

// NewRepositories builds every repository on db.
func NewRepositories(db *gorm.DB) Repositories {
	return repositoriesFor(newConn(db))
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	// WithinTransaction commits when fn returns nil and rolls back otherwise.
	// The repositories passed to fn must not escape it.
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor returns a Transactor backed by gorm transactions.
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repositoriesFor(txConn(tx)))
	})
}
