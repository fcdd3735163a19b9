package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-ops-api/internal/models"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	_, err := CreateUser(env.handler.DB, "studio-admin", "hunter22", models.RoleAdmin)
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "studio-admin",
		"password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[LoginResponse](t, w)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleAdmin, resp.Role)

	claims, err := env.tokens.Validate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.UserID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLogin_Rejections(t *testing.T) {
	env := newTestEnv(t)
	_, err := CreateUser(env.handler.DB, "studio-admin", "hunter22", models.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"wrong password", map[string]string{"username": "studio-admin", "password": "nope"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"username": "ghost", "password": "hunter22"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"username": "studio-admin"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/login", "", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCreateUser_Validation(t *testing.T) {
	env := newTestEnv(t)

	_, err := CreateUser(env.handler.DB, "x", "pw", "superuser")
	require.Error(t, err)
	_, err = CreateUser(env.handler.DB, " ", "pw", models.RoleUser)
	require.Error(t, err)

	_, err = CreateUser(env.handler.DB, "dup", "pw", models.RoleUser)
	require.NoError(t, err)
	_, err = CreateUser(env.handler.DB, "dup", "pw", models.RoleUser)
	require.Error(t, err, "usernames are unique")
}

func TestGetAllUsers_OmitsPasswords(t *testing.T) {
	env := newTestEnv(t)
	_, err := CreateUser(env.handler.DB, "bob", "secret-pw", models.RoleUser)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/users", env.adminToken(t), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret-pw")
	assert.NotContains(t, w.Body.String(), "$2a$")
	assert.Contains(t, w.Body.String(), `"username":"bob"`)
}
