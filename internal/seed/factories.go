// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"instaclone/internal/models"
	"instaclone/internal/repository"
	"instaclone/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated account.
const DefaultPassword = "instaclone123"

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	repos repository.Repositories
	opts  Options
	rng   *rand.Rand
	hash  string
	cost  int
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. db may be nil in DryRun mode.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	f, err := newFactory(opts)
	if err != nil {
		return nil, err
	}
	if db != nil {
		f.repos = repository.NewRepositories(db)
	}
	return f, nil
}

func newFactory(opts Options) (*Factory, error) {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)

	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	// #nosec G404: acceptable for seeding
	f := &Factory{
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)),
		hash:   string(hash),
		cost:   cost,
		nextID: 1000,
	}
	return f, nil
}

// pastTime returns a moment within the configured MaxDays window.
func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().UTC().Add(-back)
}

// BuildUser returns an unsaved, active user with realistic profile data.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, gofakeit.Number(10, 9999)))
	username = strings.NewReplacer(" ", "", "'", "").Replace(username)

	user := &models.User{
		Username:    username,
		Email:       username + "@" + gofakeit.DomainName(),
		Password:    f.hash,
		FirstName:   first,
		LastName:    last,
		Description: gofakeit.Sentence(8),
		Website:     gofakeit.URL(),
		IsActive:    true,
		DateJoined:  f.pastTime(),
	}
	for _, override := range overrides {
		override(user)
	}
	user.Normalize()
	return user
}

// CreateUser persists a generated user and adds it to the default groups.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		return user, nil
	}
	if err := f.repos.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	if err := f.repos.Groups.AddUserToGroups(ctx, user, models.DefaultGroups); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPublication returns an unsaved publication owned by user. The image
// points at a placeholder service so no object store is needed.
func (f *Factory) BuildPublication(user *models.User, overrides ...func(*models.Publication)) (*models.Publication, error) {
	code, err := service.GenerateCode()
	if err != nil {
		return nil, err
	}
	pub := &models.Publication{
		Code:        code,
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID()),
		Description: truncate(gofakeit.Sentence(6), models.DescriptionMaxLength),
		UserID:      user.ID,
	}
	models.ApplyAudit(pub, user.ID, true)
	pub.CreatedAt = f.pastTime()
	pub.UpdatedAt = pub.CreatedAt

	for _, override := range overrides {
		override(pub)
	}
	pub.Normalize()
	return pub, nil
}

// CreatePublication persists a generated publication, retrying on code collisions.
func (f *Factory) CreatePublication(ctx context.Context, user *models.User, overrides ...func(*models.Publication)) (*models.Publication, error) {
	const attempts = 5
	var lastErr error
	for i := 0; i < attempts; i++ {
		pub, err := f.BuildPublication(user, overrides...)
		if err != nil {
			return nil, err
		}
		if f.opts.DryRun {
			return pub, nil
		}
		lastErr = f.repos.Publications.Create(ctx, pub)
		if lastErr == nil {
			return pub, nil
		}
		if models.ErrorCode(lastErr) != models.CodeConflict {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// CreateComment persists a generated comment by author on pub.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, pub *models.Publication, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Comment:         truncate(gofakeit.Sentence(7), models.CommentMaxLength),
		PublicationCode: pub.Code,
		UserID:          author.ID,
	}
	models.ApplyAudit(comment, author.ID, true)
	for _, override := range overrides {
		override(comment)
	}
	comment.Normalize()
	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}
	if err := f.repos.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike persists a like from user on pub.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, pub *models.Publication) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.Like{UserID: user.ID, PublicationCode: pub.Code}
	models.ApplyAudit(like, user.ID, true)
	return f.repos.Likes.Create(ctx, like)
}

// CreateFollow persists follower -> followed.
func (f *Factory) CreateFollow(ctx context.Context, follower, followed *models.User) error {
	if f.opts.DryRun {
		return nil
	}
	follow := &models.Follow{FollowerID: follower.ID, FollowedID: followed.ID}
	models.ApplyAudit(follow, follower.ID, true)
	return f.repos.Follows.Create(ctx, follow)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
