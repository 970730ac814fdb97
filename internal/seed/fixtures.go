package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"instaclone/internal/models"
	"instaclone/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written data set loaded from YAML.
//
//	users:
//	  - username: ana
//	    email: ana@example.com
//	    follows: [bob]
//	publications:
//	  - owner: ana
//	    description: first post
//	    likes: [bob]
//	    comments:
//	      - author: bob
//	        text: nice
type Fixture struct {
	Users        []FixtureUser        `yaml:"users"`
	Publications []FixturePublication `yaml:"publications"`
}

// FixtureUser describes one account and whom it follows.
type FixtureUser struct {
	Username    string   `yaml:"username"`
	Email       string   `yaml:"email"`
	Password    string   `yaml:"password"`
	FirstName   string   `yaml:"first_name"`
	LastName    string   `yaml:"last_name"`
	Description string   `yaml:"description"`
	Superuser   bool     `yaml:"superuser"`
	Inactive    bool     `yaml:"inactive"`
	Follows     []string `yaml:"follows"`
}

// FixturePublication describes a publication with its engagement.
type FixturePublication struct {
	Owner       string           `yaml:"owner"`
	Code        string           `yaml:"code"`
	Image       string           `yaml:"image"`
	Description string           `yaml:"description"`
	Likes       []string         `yaml:"likes"`
	Comments    []FixtureComment `yaml:"comments"`
}

// FixtureComment is a comment by Author.
type FixtureComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// LoadFixture reads and parses a fixture file.
func LoadFixture(path string) (*Fixture, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseFixture(raw)
}

// ParseFixture decodes YAML and checks that every reference resolves.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixture) validate() error {
	known := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		name := strings.ToLower(strings.TrimSpace(u.Username))
		if name == "" || strings.TrimSpace(u.Email) == "" {
			return fmt.Errorf("users[%d]: username and email are required", i)
		}
		if known[name] {
			return fmt.Errorf("users[%d]: duplicate username %q", i, name)
		}
		known[name] = true
	}

	var errs []error
	ref := func(where, name string) {
		if !known[strings.ToLower(strings.TrimSpace(name))] {
			errs = append(errs, fmt.Errorf("%s: unknown user %q", where, name))
		}
	}
	for i, u := range fx.Users {
		for _, f := range u.Follows {
			ref(fmt.Sprintf("users[%d].follows", i), f)
		}
	}
	for i, p := range fx.Publications {
		ref(fmt.Sprintf("publications[%d].owner", i), p.Owner)
		if p.Code != "" && !models.ValidPublicationCode(p.Code) {
			errs = append(errs, fmt.Errorf("publications[%d]: invalid code %q", i, p.Code))
		}
		for _, l := range p.Likes {
			ref(fmt.Sprintf("publications[%d].likes", i), l)
		}
		for _, c := range p.Comments {
			ref(fmt.Sprintf("publications[%d].comments", i), c.Author)
		}
	}
	return errors.Join(errs...)
}

// ApplyFixture writes the fixture in one transaction. Accounts whose username
// already exists are reused as they are.
func ApplyFixture(ctx context.Context, db *gorm.DB, fx *Fixture, opts Options) (*Result, error) {
	res := &Result{}
	err := repository.NewTransactor(db).WithinTransaction(ctx, func(repos repository.Repositories) error {
		f, err := newFactory(opts)
		if err != nil {
			return err
		}
		f.repos = repos
		if err := f.repos.Groups.EnsureDefaults(ctx); err != nil {
			return err
		}

		users := make(map[string]*models.User, len(fx.Users))
		for _, fu := range fx.Users {
			user, created, err := f.fixtureUser(ctx, fu)
			if err != nil {
				return fmt.Errorf("user %q: %w", fu.Username, err)
			}
			users[user.Username] = user
			if created {
				res.Users++
			}
		}
		lookup := func(name string) *models.User {
			return users[strings.ToLower(strings.TrimSpace(name))]
		}

		for _, fu := range fx.Users {
			follower := lookup(fu.Username)
			for _, name := range fu.Follows {
				followed := lookup(name)
				// A failed insert would abort a Postgres transaction, so check first.
				exists, err := f.repos.Follows.Exists(ctx, follower.ID, followed.ID)
				if err != nil {
					return err
				}
				if exists {
					continue
				}
				if err := f.CreateFollow(ctx, follower, followed); err != nil {
					return fmt.Errorf("follow %s -> %s: %w", fu.Username, name, err)
				}
				res.Follows++
			}
		}

		for i, fp := range fx.Publications {
			pub, err := f.CreatePublication(ctx, lookup(fp.Owner), func(p *models.Publication) {
				if fp.Code != "" {
					p.Code = fp.Code
				}
				if fp.Image != "" {
					p.Image = fp.Image
				}
				p.Description = fp.Description
			})
			if err != nil {
				return fmt.Errorf("publications[%d]: %w", i, err)
			}
			res.Publications++

			for _, name := range fp.Likes {
				if err := f.CreateLike(ctx, lookup(name), pub); err != nil {
					return fmt.Errorf("publications[%d] like by %s: %w", i, name, err)
				}
				res.Likes++
			}
			for _, fc := range fp.Comments {
				text := fc.Text
				if _, err := f.CreateComment(ctx, lookup(fc.Author), pub, func(c *models.Comment) {
					c.Comment = text
				}); err != nil {
					return fmt.Errorf("publications[%d] comment by %s: %w", i, fc.Author, err)
				}
				res.Comments++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (f *Factory) fixtureUser(ctx context.Context, fu FixtureUser) (*models.User, bool, error) {
	existing, err := f.repos.Users.GetByUsername(ctx, fu.Username)
	if err == nil {
		return existing, false, nil
	}
	if models.ErrorCode(err) != models.CodeNotFound {
		return nil, false, err
	}

	var hash string
	if fu.Password != "" {
		raw, err := bcrypt.GenerateFromPassword([]byte(fu.Password), f.cost)
		if err != nil {
			return nil, false, err
		}
		hash = string(raw)
	}
	user, err := f.CreateUser(ctx, func(u *models.User) {
		u.Username = fu.Username
		u.Email = fu.Email
		u.FirstName = fu.FirstName
		u.LastName = fu.LastName
		u.Description = fu.Description
		u.Website = ""
		u.IsSuperuser = fu.Superuser
		u.IsStaff = fu.Superuser
		u.IsActive = !fu.Inactive
		if hash != "" {
			u.Password = hash
		}
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
