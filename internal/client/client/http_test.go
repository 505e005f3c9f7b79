package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authbridge/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// legacyServer mimics the server's credential and migration endpoints.
func legacyServer(t *testing.T, migrateStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var c credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		if c.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: common.LegacySessionCookieName, Value: "tok", Path: "/"})
		json.NewEncoder(w).Encode(Session{UserID: "u1", Email: c.Email})
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	mux.HandleFunc("GET /api/auth/session", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie(common.LegacySessionCookieName); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(Session{UserID: "u1", Email: "a@example.com"})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: common.LegacySessionCookieName, Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	})
	migrate := func(w http.ResponseWriter, r *http.Request) {
		switch migrateStatus {
		case http.StatusCreated:
			if _, err := r.Cookie(common.LegacySessionCookieName); err != nil {
				w.WriteHeader(common.StatusAlreadyHandled)
				w.Write([]byte("User not signed into legacy auth"))
				return
			}
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"token":"ticket-1"}`))
		case common.StatusAlreadyHandled:
			w.WriteHeader(common.StatusAlreadyHandled)
			w.Write([]byte("User already exists"))
		default:
			w.WriteHeader(migrateStatus)
			w.Write([]byte(`{"error":"boom"}`))
		}
	}
	mux.HandleFunc("POST /api/auth-migration", migrate)
	mux.HandleFunc("POST /api/signInToken", migrate)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClient_LoginThenMigrate(t *testing.T) {
	srv := legacyServer(t, http.StatusCreated)
	c, err := NewHTTPClient(srv.URL+"/", 5*time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	// without a session the server answers with the sentinel
	res, err := c.Migrate(ctx)
	require.NoError(t, err)
	assert.True(t, res.Sentinel)
	assert.False(t, res.HasTicket())
	assert.Equal(t, "User not signed into legacy auth", res.Message)

	_, err = c.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	s, err := c.Login(ctx, "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, "tok", c.LegacySessionToken())

	res, err = c.Migrate(ctx)
	require.NoError(t, err)
	assert.True(t, res.HasTicket())
	assert.Equal(t, "ticket-1", res.Ticket)

	res, err = c.SignInToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ticket-1", res.Ticket)

	s, err = c.Session(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", s.Email)

	require.NoError(t, c.Logout(ctx))
	assert.Empty(t, c.LegacySessionToken())

	_, err = c.Session(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPClient_MigrateStatuses(t *testing.T) {
	srv := legacyServer(t, common.StatusAlreadyHandled)
	c, err := NewHTTPClient(srv.URL, time.Second)
	require.NoError(t, err)

	res, err := c.Migrate(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Sentinel)
	assert.Equal(t, "User already exists", res.Message)

	srv = legacyServer(t, http.StatusInternalServerError)
	c, err = NewHTTPClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Migrate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusInternalServerError, se.Code)
}

func TestHTTPClient_RegisterConflict(t *testing.T) {
	srv := legacyServer(t, http.StatusCreated)
	c, err := NewHTTPClient(srv.URL, time.Second)
	require.NoError(t, err)

	_, err = c.Register(context.Background(), "a@example.com", "pw", "")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestHTTPClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, time.Second)
	require.NoError(t, err)

	_, err = c.Migrate(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNewHTTPClient_BadURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com", time.Second)
	assert.Error(t, err)
}
