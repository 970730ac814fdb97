package seed

import (
	"context"
	"fmt"
	"log/slog"

	"instaclone/internal/middleware"
	"instaclone/internal/models"
	"instaclone/internal/repository"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPublications int
	// FollowsPerUser caps how many accounts each generated user follows.
	FollowsPerUser int
	// MaxDays bounds how far back generated timestamps go.
	MaxDays int
	// LikeRatio is the chance that a given follower likes a publication.
	LikeRatio   float64
	ShouldClean bool
	DryRun      bool
	// FastHash uses the minimum bcrypt cost.
	FastHash   bool
	RandomSeed int64
}

// DefaultOptions returns the settings used by cmd/seed without flags.
func DefaultOptions() Options {
	return Options{
		NumUsers:        20,
		NumPublications: 60,
		FollowsPerUser:  6,
		MaxDays:         90,
		LikeRatio:       0.3,
	}
}

// Result counts what a run created.
type Result struct {
	Users        int
	Follows      int
	Publications int
	Comments     int
	Likes        int
}

// Seed populates the database with a generated social graph.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Result, error) {
	middleware.Logger.InfoContext(ctx, "starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("publications", opts.NumPublications),
		slog.Bool("dry_run", opts.DryRun),
	)

	if !opts.DryRun {
		if opts.ShouldClean {
			if err := Clean(ctx, db); err != nil {
				return nil, fmt.Errorf("clean existing data: %w", err)
			}
		}
		if err := repository.NewGroupRepository(db).EnsureDefaults(ctx); err != nil {
			return nil, fmt.Errorf("ensure default groups: %w", err)
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			if models.ErrorCode(err) == models.CodeConflict {
				continue
			}
			return res, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	res.Users = len(users)
	if len(users) == 0 {
		return res, nil
	}

	followers := make(map[uint][]*models.User, len(users))
	for _, user := range users {
		followed := 0
		for _, idx := range f.rng.Perm(len(users)) {
			if followed >= opts.FollowsPerUser {
				break
			}
			target := users[idx]
			if target.ID == user.ID {
				continue
			}
			if err := f.CreateFollow(ctx, user, target); err != nil {
				return res, fmt.Errorf("create follow: %w", err)
			}
			followers[target.ID] = append(followers[target.ID], user)
			followed++
			res.Follows++
		}
	}

	for i := 0; i < opts.NumPublications; i++ {
		owner := users[f.rng.Intn(len(users))]
		pub, err := f.CreatePublication(ctx, owner)
		if err != nil {
			return res, fmt.Errorf("create publication: %w", err)
		}
		res.Publications++

		for _, fan := range followers[owner.ID] {
			if f.rng.Float64() >= opts.LikeRatio {
				continue
			}
			if err := f.CreateLike(ctx, fan, pub); err != nil {
				return res, fmt.Errorf("create like: %w", err)
			}
			res.Likes++
			if f.rng.Intn(2) == 0 {
				if _, err := f.CreateComment(ctx, fan, pub); err != nil {
					return res, fmt.Errorf("create comment: %w", err)
				}
				res.Comments++
			}
		}
	}

	middleware.Logger.InfoContext(ctx, "database seeding completed",
		slog.Int("users", res.Users),
		slog.Int("follows", res.Follows),
		slog.Int("publications", res.Publications),
		slog.Int("likes", res.Likes),
		slog.Int("comments", res.Comments),
	)
	return res, nil
}

// Clean removes every non-superuser account and all social content. Rows are
// deleted child-first because foreign keys restrict deletes.
func Clean(ctx context.Context, db *gorm.DB) error {
	middleware.Logger.InfoContext(ctx, "clearing existing data")
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM likes",
			"DELETE FROM comments",
			"DELETE FROM publications",
			"DELETE FROM follows",
			"DELETE FROM user_groups WHERE user_id IN (SELECT id FROM users WHERE is_superuser = false)",
			"DELETE FROM users WHERE is_superuser = false",
		} {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
