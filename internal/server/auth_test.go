package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"instaclone/internal/cache"
	"instaclone/internal/middleware"
	"instaclone/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_ReturnsTokenPair(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(http.MethodPost, "/api/users/user/create/", nil, map[string]string{
		"username":        "  Ana ",
		"email":           "ana@example.com",
		"password":        testPassword,
		"repeat_password": testPassword,
		"first_name":      "Ana",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[AuthResponse](t, resp)
	assert.Equal(t, "ana", body.Username)
	assert.NotEmpty(t, body.Access)
	assert.NotEmpty(t, body.Refresh)

	claims, err := middleware.ParseToken("test-secret", body.Access, middleware.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, body.UserID, claims.UserID)

	// The new account can use its permissions straight away.
	req := httptest.NewRequest(http.MethodGet, "/api/users/user/ana/get/", nil)
	req.Header.Set("Authorization", "Bearer "+body.Access)
	got, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = got.Body.Close() }()
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

func TestCreateUser_Errors(t *testing.T) {
	e := newTestEnv(t)
	e.user("taken")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{
			name: "passwords differ",
			body: map[string]string{
				"username": "bob", "email": "bob@example.com",
				"password": testPassword, "repeat_password": "something-else",
			},
			status: http.StatusBadRequest,
			code:   models.CodeValidation,
		},
		{
			name: "numeric password",
			body: map[string]string{
				"username": "bob", "email": "bob@example.com",
				"password": "1234567890", "repeat_password": "1234567890",
			},
			status: http.StatusBadRequest,
			code:   models.CodeValidation,
		},
		{
			name: "duplicate username",
			body: map[string]string{
				"username": "taken", "email": "other@example.com",
				"password": testPassword, "repeat_password": testPassword,
			},
			status: http.StatusConflict,
			code:   models.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(http.MethodPost, "/api/users/user/create", nil, tt.body)
			assertErrorCode(t, resp, tt.status, tt.code)
		})
	}
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	e.user("ana")
	e.user("ghost", func(u *models.User) { u.IsActive = false })

	tests := []struct {
		name     string
		email    string
		password string
		status   int
	}{
		{"valid credentials", "ana@example.com", testPassword, http.StatusOK},
		{"wrong password", "ana@example.com", "nope-nope-nope", http.StatusUnauthorized},
		{"unknown email", "who@example.com", testPassword, http.StatusUnauthorized},
		{"inactive account", "ghost@example.com", testPassword, http.StatusUnauthorized},
		{"missing fields", "", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := e.do(http.MethodPost, "/api/users/auth/login/", nil, map[string]string{
				"email": tt.email, "password": tt.password,
			})
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp := e.do(http.MethodPost, "/api/users/auth/login", nil, map[string]string{
		"email": "ana@example.com", "password": testPassword,
	})
	body := decode[AuthResponse](t, resp)
	assert.Equal(t, "ana@example.com", body.Email)
	assert.Equal(t, "Test", body.FirstName)

	ana, err := e.repos.Users.GetByUsername(context.Background(), "ana")
	require.NoError(t, err)
	assert.NotNil(t, ana.LastLogin)
}

func TestRenewAndVerifyToken(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("ana")

	refresh, err := middleware.IssueToken("test-secret", ana.ID, false, middleware.RefreshToken, time.Hour)
	require.NoError(t, err)

	resp := e.do(http.MethodPost, "/api/users/auth/jwt/renew/", nil, map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	renewed := decode[map[string]string](t, resp)
	_, err = middleware.ParseToken("test-secret", renewed["access"], middleware.AccessToken)
	assert.NoError(t, err)

	// An access token cannot be used as a refresh token.
	resp = e.do(http.MethodPost, "/api/users/auth/jwt/renew/", nil, map[string]string{"refresh": e.token(ana)})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(http.MethodPost, "/api/users/auth/jwt/verify/", nil, map[string]string{"token": refresh})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(http.MethodPost, "/api/users/auth/jwt/verify/", nil, map[string]string{"token": "garbage"})
	assertErrorCode(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)
}

func TestAuthRequired(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("ana")
	ghost := e.user("ghost", func(u *models.User) { u.IsActive = false })

	t.Run("missing token", func(t *testing.T) {
		resp := e.do(http.MethodGet, "/api/users/user/ana/get/", nil, nil)
		assertErrorCode(t, resp, http.StatusUnauthorized, models.CodeUnauthorized)
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		refresh, err := middleware.IssueToken("test-secret", ana.ID, false, middleware.RefreshToken, time.Hour)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/users/user/ana/get/", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		resp, err := e.app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("inactive user", func(t *testing.T) {
		resp := e.do(http.MethodGet, "/api/users/user/ana/get/", ghost, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		resp := e.do(http.MethodGet, "/api/users/user/ana/get/", ana, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestCan_RequiresGroupPermission(t *testing.T) {
	e := newTestEnv(t)
	target := e.user("target")

	// Created without any group membership.
	outsider := &models.User{Username: "outsider", Email: "outsider@example.com", Password: "x", IsActive: true, DateJoined: time.Now().UTC()}
	require.NoError(t, e.repos.Users.Create(context.Background(), outsider))

	resp := e.do(http.MethodGet, "/api/users/user/target/get/", outsider, nil)
	assertErrorCode(t, resp, http.StatusForbidden, models.CodeForbidden)

	root := &models.User{Username: "root", Email: "root@example.com", Password: "x", IsActive: true, IsSuperuser: true, DateJoined: time.Now().UTC()}
	require.NoError(t, e.repos.Users.Create(context.Background(), root))
	resp = e.do(http.MethodGet, "/api/users/user/target/get/", root, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(http.MethodGet, "/api/users/user/target/get/", target, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWSTicket_SingleUse(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("ana")

	resp := e.do(http.MethodPost, "/api/ws/ticket", ana, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	ticket, _ := body["ticket"].(string)
	require.NotEmpty(t, ticket)

	ttl := e.mr.TTL(cache.WSTicketKey(ticket))
	assert.Equal(t, cache.WSTicketTTL, ttl)

	// A ticket authenticates any protected route exactly once.
	first := httptest.NewRequest(http.MethodGet, "/api/users/user/ana/get/?ticket="+ticket, nil)
	r1, err := e.app.Test(first, -1)
	require.NoError(t, err)
	defer func() { _ = r1.Body.Close() }()
	assert.Equal(t, http.StatusOK, r1.StatusCode)
	assert.False(t, e.mr.Exists(cache.WSTicketKey(ticket)))

	second := httptest.NewRequest(http.MethodGet, "/api/users/user/ana/get/?ticket="+ticket, nil)
	r2, err := e.app.Test(second, -1)
	require.NoError(t, err)
	defer func() { _ = r2.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, r2.StatusCode)
}

func TestWebsocketRoute_RequiresUpgrade(t *testing.T) {
	e := newTestEnv(t)
	ana := e.user("ana")

	resp := e.do(http.MethodGet, "/api/ws", ana, nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)

	resp = e.do(http.MethodGet, "/api/ws", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthChecks(t *testing.T) {
	e := newTestEnv(t)

	resp := e.do(http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "healthy", body["status"])

	e.mr.Close()
	resp = e.do(http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
