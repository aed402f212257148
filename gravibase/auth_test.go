package gravibase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gravisales/crm/gravibase"
	"github.com/gravisales/crm/session"
	"github.com/gravisales/crm/session/sessionfakes"
	"github.com/stretchr/testify/require"
)

func newAuthTestClient(t *testing.T, handler http.Handler) (*gravibase.Client, *sessionfakes.FakeStore) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	store := sessionfakes.NewFakeStore()
	return gravibase.New(server.URL, "minicrm", store), store
}

func TestLoginBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/projects/minicrm/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "admin", r.PostForm.Get("login"))
		require.Equal(t, "wrongpass", r.PostForm.Get("password"))
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, store := newAuthTestClient(t, mux)

	_, err := client.Login(context.Background(), "admin", "wrongpass")
	require.Error(t, err)
	require.Equal(t, gravibase.CodeInvalidCredentials, gravibase.CodeOf(err))
	require.Zero(t, store.SetCalls, "failed login must not write to the store")
}

func TestLoginSuccessPersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/projects/minicrm/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "T1",
			"refresh_token": "R1",
			"token_type":    "bearer",
			"expires_in":    900,
		})
	})
	client, store := newAuthTestClient(t, mux)

	sess, err := client.Login(context.Background(), "admin", "12345678")
	require.NoError(t, err)
	require.Equal(t, "T1", sess.AccessToken)
	require.Equal(t, "R1", sess.RefreshToken)
	require.Equal(t, "admin", sess.Username)

	stored, err := store.Get()
	require.NoError(t, err)
	require.Equal(t, sess.AccessToken, stored.AccessToken)
	require.Equal(t, sess.RefreshToken, stored.RefreshToken)
}

func TestLoginNetworkError(t *testing.T) {
	store := sessionfakes.NewFakeStore()
	client := gravibase.New("http://127.0.0.1:1", "minicrm", store)

	_, err := client.Login(context.Background(), "admin", "12345678")
	require.Error(t, err)
	require.Equal(t, gravibase.CodeNetworkError, gravibase.CodeOf(err))
	require.Zero(t, store.SetCalls)
}

func TestRegisterUsernameConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/projects/minicrm/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"conflict"}`))
	})
	client, store := newAuthTestClient(t, mux)

	_, err := client.Register(context.Background(), gravibase.RegistrationParams{
		Username: "admin",
		Email:    "admin@acme.com",
		Password: "Password123",
		OrgCode:  "ACME-01",
	})
	require.Error(t, err)
	require.Equal(t, gravibase.CodeUsernameExists, gravibase.CodeOf(err))
	require.Zero(t, store.SetCalls, "conflicting registration must not store a token")
}

func TestRegisterPasswordPolicyViolation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/projects/minicrm/users", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
	})
	client, store := newAuthTestClient(t, mux)

	_, err := client.Register(context.Background(), gravibase.RegistrationParams{
		Username: "john",
		Email:    "john@acme.com",
		Password: "short",
		OrgCode:  "ACME-01",
	})
	require.Error(t, err)
	require.Equal(t, gravibase.CodePasswordTooShort, gravibase.CodeOf(err))
	require.Zero(t, store.SetCalls)
}

func TestRegisterSuccess(t *testing.T) {
	var received map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/projects/minicrm/users", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "T1",
			"refresh_token": "R1",
			"expires_in":    900,
		})
	})
	client, store := newAuthTestClient(t, mux)

	sess, err := client.Register(context.Background(), gravibase.RegistrationParams{
		Username: "john-doe",
		Email:    "john@acme.com",
		Password: "SecureP@ss1",
		OrgCode:  "ACME-01",
	})
	require.NoError(t, err)
	require.Equal(t, "john-doe", sess.Username)
	require.Equal(t, 1, store.SetCalls)

	require.Equal(t, "john-doe", received["username"])
	require.Equal(t, "password", received["flow"])
	require.Equal(t, "SecureP@ss1", received["value"])
	profile, ok := received["profile"].([]any)
	require.True(t, ok)
	require.Len(t, profile, 2)
}

func TestAssignRole(t *testing.T) {
	var called bool
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /security/projects/minicrm/users/john/roles/sales", func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	require.NoError(t, client.AssignRole(context.Background(), "john", "sales"))
	require.True(t, called)
}

func TestAssignRoleFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /security/projects/minicrm/users/john/roles/sales", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	err := client.AssignRole(context.Background(), "john", "sales")
	require.Error(t, err)
	require.Equal(t, gravibase.CodeRoleAssignmentFailed, gravibase.CodeOf(err))
}

func TestProfileNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /security/projects/minicrm/users/ghost/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("ghost", "T1", "R1", 900)))

	_, err := client.Profile(context.Background(), "ghost")
	require.Error(t, err)
	require.Equal(t, gravibase.CodeNotFound, gravibase.CodeOf(err))
}

func TestUpdateProfile(t *testing.T) {
	var received []gravibase.ProfileAttribute
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /security/projects/minicrm/users/john/profile", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	})
	client, store := newAuthTestClient(t, mux)
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	attrs := []gravibase.ProfileAttribute{{Attribute: "orgCode", Value: "ACME-01"}}
	require.NoError(t, client.UpdateProfile(context.Background(), "john", attrs))
	require.Equal(t, attrs, received)
}

func TestLogoutClearsStore(t *testing.T) {
	client, store := newAuthTestClient(t, http.NewServeMux())
	require.NoError(t, store.Set(session.New("john", "T1", "R1", 900)))

	require.NoError(t, client.Logout())
	sess, err := store.Get()
	require.NoError(t, err)
	require.False(t, sess.Authenticated())
}
