package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"instaclone/internal/models"
	"instaclone/internal/repository"
	"instaclone/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const sampleFixture = `
users:
  - username: Ana
    email: ana@example.com
    password: s3cret-pass
    first_name: Ana
    follows: [bob, cleo]
  - username: bob
    email: bob@example.com
    follows: [ana]
  - username: cleo
    email: cleo@example.com
    superuser: true
publications:
  - owner: ana
    code: AAAAA1
    description: "sunset   at the PIER "
    likes: [bob, cleo]
    comments:
      - author: bob
        text: lovely
  - owner: bob
    description: coffee
`

func TestParseFixture_RejectsUnknownReferences(t *testing.T) {
	_, err := ParseFixture([]byte(`
users:
  - username: ana
    email: ana@example.com
    follows: [ghost]
publications:
  - owner: nobody
    code: bad
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown user "ghost"`)
	assert.Contains(t, err.Error(), `unknown user "nobody"`)
	assert.Contains(t, err.Error(), `invalid code "bad"`)
}

func TestParseFixture_DuplicateUsername(t *testing.T) {
	_, err := ParseFixture([]byte(`
users:
  - {username: ana, email: a@example.com}
  - {username: ANA, email: b@example.com}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate username")
}

func TestApplyFixture(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "fixture.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleFixture), 0o600))
	fx, err := LoadFixture(path)
	require.NoError(t, err)

	res, err := ApplyFixture(ctx, db, fx, Options{FastHash: true})
	require.NoError(t, err)
	assert.Equal(t, &Result{Users: 3, Follows: 3, Publications: 2, Comments: 1, Likes: 2}, res)

	repos := repository.NewRepositories(db)
	ana, err := repos.Users.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(ana.Password), []byte("s3cret-pass")))

	cleo, err := repos.Users.GetByUsername(ctx, "cleo")
	require.NoError(t, err)
	assert.True(t, cleo.IsSuperuser)

	pub, err := repos.Publications.GetByCode(ctx, "AAAAA1")
	require.NoError(t, err)
	assert.Equal(t, "Sunset at the pier", pub.Description)
	assert.Equal(t, ana.ID, pub.UserID)

	n, err := repos.Likes.Count(ctx, "AAAAA1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	counts, err := repos.Follows.Counts(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FollowCounts{FollowingCount: 2, FollowersCount: 1}, counts)

	// Applying again reuses the accounts and only adds new content.
	again, err := ParseFixture([]byte(`
users:
  - {username: ana, email: ana@example.com, follows: [bob]}
  - {username: bob, email: bob@example.com}
publications:
  - {owner: bob, description: second round}
`))
	require.NoError(t, err)
	res, err = ApplyFixture(ctx, db, again, Options{FastHash: true})
	require.NoError(t, err)
	assert.Equal(t, &Result{Publications: 1}, res)
}
