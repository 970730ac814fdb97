package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"instaclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("ana")
	bob := e.user("bob")
	carl := e.user("carl")
	e.publication(ana, "PUB001", time.Now().UTC())

	addComment := func(as *models.User, text string) models.Comment {
		t.Helper()
		resp := e.do(http.MethodPost, "/api/posts/comment/add/", as, map[string]string{
			"comment": text, "publication": "PUB001",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		return decode[models.Comment](t, resp)
	}

	first := addComment(bob, "great   SHOT  ")
	assert.Equal(t, "Great shot", first.Comment)
	assert.Equal(t, "bob", first.User.Username)
	second := addComment(carl, "love it")

	resp := e.do(http.MethodGet, "/api/posts/comment/PUB001/list/", ana, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]models.Comment](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	t.Run("validation", func(t *testing.T) {
		resp := e.do(http.MethodPost, "/api/posts/comment/add/", bob, map[string]string{"comment": "hi"})
		assertErrorCode(t, resp, http.StatusBadRequest, models.CodeValidation)

		resp = e.do(http.MethodPost, "/api/posts/comment/add/", bob, map[string]string{
			"comment": "", "publication": "PUB001",
		})
		assertErrorCode(t, resp, http.StatusBadRequest, models.CodeValidation)

		resp = e.do(http.MethodPost, "/api/posts/comment/add/", bob, map[string]string{
			"comment": "hi", "publication": "NOPE00",
		})
		assertErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)
	})

	t.Run("only author, owner or superuser may remove", func(t *testing.T) {
		resp := e.do(http.MethodDelete, fmt.Sprintf("/api/posts/comment/%d/remove/", first.ID), carl, nil)
		assertErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

		resp = e.do(http.MethodDelete, fmt.Sprintf("/api/posts/comment/%d/remove/", first.ID), bob, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		// The publication owner can moderate comments by others.
		resp = e.do(http.MethodDelete, fmt.Sprintf("/api/posts/comment/%d/remove/", second.ID), ana, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		resp = e.do(http.MethodDelete, fmt.Sprintf("/api/posts/comment/%d/remove/", second.ID), ana, nil)
		assertErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)
	})

	t.Run("bad id", func(t *testing.T) {
		resp := e.do(http.MethodDelete, "/api/posts/comment/abc/remove/", ana, nil)
		assertErrorCode(t, resp, http.StatusBadRequest, models.CodeValidation)
	})
}

func TestLikes(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("ana")
	bob := e.user("bob")
	e.publication(ana, "PUB002", time.Now().UTC())

	count := func() int64 {
		t.Helper()
		resp := e.do(http.MethodGet, "/api/posts/like/PUB002/count/", ana, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[models.LikeCount](t, resp).Count
	}
	liked := func(as *models.User) bool {
		t.Helper()
		resp := e.do(http.MethodGet, "/api/posts/like/PUB002/liked/", as, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[map[string]bool](t, resp)["liked"]
	}

	assert.Zero(t, count())
	assert.False(t, liked(bob))

	resp := e.do(http.MethodPost, "/api/posts/like/PUB002/add/", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(http.MethodPost, "/api/posts/like/PUB002/add/", bob, nil)
	assertErrorCode(t, resp, http.StatusConflict, models.CodeConflict)

	resp = e.do(http.MethodPost, "/api/posts/like/PUB002/add/", ana, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(2), count())
	assert.True(t, liked(bob))

	resp = e.do(http.MethodDelete, "/api/posts/like/PUB002/remove/", bob, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(http.MethodDelete, "/api/posts/like/PUB002/remove/", bob, nil)
	assertErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)

	assert.Equal(t, int64(1), count())
	assert.False(t, liked(bob))

	resp = e.do(http.MethodPost, "/api/posts/like/NOPE00/add/", bob, nil)
	assertErrorCode(t, resp, http.StatusNotFound, models.CodeNotFound)
}
