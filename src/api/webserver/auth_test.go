package webserver

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clubwize/backend/src/api/types"
)

func TestSignupVerifyLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/auth/signup", "", gin.H{
		"userName": "ada", "email": "ada@example.com", "password": "correct-horse",
		"firstName": "Ada",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Login before verification is refused.
	w = env.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	code, err := env.mr.Get("otp:ada@example.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	// A wrong code does not burn the real one.
	w = env.do(t, http.MethodPost, "/v1/auth/verify-otp", "", gin.H{
		"email": "ada@example.com", "code": "000000",
	})
	if code != "000000" {
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w = env.do(t, http.MethodPost, "/v1/auth/verify-otp", "", gin.H{
		"email": "ada@example.com", "code": code,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decodeBody(t, w)["token"].(string)
	require.NotEmpty(t, token)

	// The code is consumed on success.
	assert.False(t, env.mr.Exists("otp:ada@example.com"))

	w = env.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSignupDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, "ada", "ada@example.com", "x-secret-pw")

	w := env.do(t, http.MethodPost, "/v1/auth/signup", "", gin.H{
		"userName": "ada2", "email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/v1/auth/signup", "", gin.H{
		"userName": "ada", "email": "other@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginBlockedUser(t *testing.T) {
	env := newTestEnv(t)
	uid := env.newUser(t, "ada", "ada@example.com", "correct-horse")
	require.NoError(t, env.db.Model(&types.User{}).Where("id = ?", uid).
		Update("is_blocked", true).Error)

	w := env.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	env.newUser(t, "ada", "ada@example.com", "old-password")

	w := env.do(t, http.MethodPost, "/v1/auth/forgot-password", "", gin.H{
		"email": "ada@example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The only pwreset: key holds our token.
	var token string
	for _, k := range env.mr.Keys() {
		if len(k) > 8 && k[:8] == "pwreset:" {
			token = k[8:]
		}
	}
	require.NotEmpty(t, token)

	w = env.do(t, http.MethodPost, "/v1/auth/reset-password", "", gin.H{
		"token": "not-a-token", "password": "new-password",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/v1/auth/reset-password", "", gin.H{
		"token": token, "password": "new-password",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// The token is single use.
	w = env.do(t, http.MethodPost, "/v1/auth/reset-password", "", gin.H{
		"token": token, "password": "another-password",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"email": "ada@example.com", "password": "new-password",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestForgotPasswordUnknownAddress(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/v1/auth/forgot-password", "", gin.H{
		"email": "nobody@example.com",
	})
	// Same answer as for a registered address.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, env.mr.Keys())
}

func TestSecuredRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/v1/clubs", "", gin.H{"name": "chess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/v1/clubs", "garbage-token", gin.H{"name": "chess"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
