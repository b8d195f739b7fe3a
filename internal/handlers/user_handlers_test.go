package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func (env *testEnv) register(email string, rs ...string) map[string]any {
	body := registerBody()
	body["email"] = email
	if len(rs) > 0 {
		body["roles"] = rs
	}
	rec := env.do(http.MethodPost, "/api/auth/register", "", body)
	require.Equal(env.T, http.StatusOK, rec.Code)
	return env.decode(rec)
}

func (env *testEnv) userID(accessToken string) string {
	claims, err := env.Issuer.ParseAccess(accessToken)
	require.NoError(env.T, err)
	return claims.Subject
}

func TestUsersList_AdminGating(t *testing.T) {
	env := newTestEnv(t)

	user := env.register("user@x.com")
	moderator := env.register("mod@x.com", "ROLE_MODERATOR")
	admin := env.register("admin@x.com", "ROLE_ADMIN")

	// No token at all.
	rec := env.do(http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Authenticated but below the required role.
	rec = env.do(http.MethodGet, "/api/users", user["access_token"].(string), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/users", moderator["access_token"].(string), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Admin passes.
	rec = env.do(http.MethodGet, "/api/users", admin["access_token"].(string), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := env.decode(rec)
	users, ok := resp["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 3)
}

func TestUsersList_Filters(t *testing.T) {
	env := newTestEnv(t)

	env.register("user@x.com")
	admin := env.register("admin@y.com", "ROLE_ADMIN")
	token := admin["access_token"].(string)

	rec := env.do(http.MethodGet, "/api/users?email=x.com", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := env.decode(rec)
	require.Len(t, resp["users"].([]any), 1)

	rec = env.do(http.MethodGet, "/api/users?role=ROLE_ADMIN", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = env.decode(rec)
	require.Len(t, resp["users"].([]any), 1)

	rec = env.do(http.MethodGet, "/api/users?role=ROLE_GHOST", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersGet(t *testing.T) {
	env := newTestEnv(t)

	user := env.register("user@x.com")
	admin := env.register("admin@x.com", "ROLE_ADMIN")
	token := admin["access_token"].(string)

	rec := env.do(http.MethodGet, "/api/users/"+env.userID(user["access_token"].(string)), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got := env.decode(rec)
	require.Equal(t, "user@x.com", got["email"])
	require.NotContains(t, got, "password")

	rec = env.do(http.MethodGet, "/api/users/missing-id", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersPatch(t *testing.T) {
	env := newTestEnv(t)

	user := env.register("user@x.com")
	token := user["access_token"].(string)
	id := env.userID(token)

	rec := env.do(http.MethodPatch, "/api/users/"+id, token, map[string]any{
		"first_name": "Grace",
		"roles":      []string{"ROLE_MODERATOR"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	got := env.decode(rec)
	require.Equal(t, "Grace", got["first_name"])
	require.Equal(t, []any{"ROLE_MODERATOR"}, got["roles"])

	// The roles snapshot in the existing access token is unchanged: the
	// promoted account still cannot reach admin routes until re-login.
	rec = env.do(http.MethodGet, "/api/users", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPatch, "/api/users/"+id, token, map[string]any{
		"roles": []string{"ROLE_GHOST"},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, "/api/users/missing-id", token, map[string]any{
		"first_name": "X",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersDelete(t *testing.T) {
	env := newTestEnv(t)

	user := env.register("user@x.com")
	admin := env.register("admin@x.com", "ROLE_ADMIN")
	token := admin["access_token"].(string)
	id := env.userID(user["access_token"].(string))

	rec := env.do(http.MethodDelete, "/api/users/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user deleted", env.decode(rec)["message"])

	rec = env.do(http.MethodDelete, "/api/users/"+id, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// The deleted account's access token authenticates but /me is gone.
	rec = env.do(http.MethodGet, "/api/auth/me", user["access_token"].(string), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsersSearch_Unavailable(t *testing.T) {
	env := newTestEnv(t)

	admin := env.register("admin@x.com", "ROLE_ADMIN")
	token := admin["access_token"].(string)

	rec := env.do(http.MethodGet, "/api/users/search?q=ada", token, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = env.do(http.MethodGet, "/api/users/search", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
