package user

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPResolver_ResolveUserID(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/users/getUserId/shopper@example.com", r.URL.Path)
			w.Write([]byte(`{"userId":"665f1c"}`))
		}))
		defer srv.Close()

		id, err := NewHTTPResolver(srv.URL+"/api", time.Second).ResolveUserID(ctx, "shopper@example.com")

		require.NoError(t, err)
		assert.Equal(t, "665f1c", id)
	})

	t.Run("EmptyEmail", func(t *testing.T) {
		_, err := NewHTTPResolver("http://unused", time.Second).ResolveUserID(ctx, "  ")
		assert.ErrorIs(t, err, ErrEmptyEmail)
	})

	t.Run("NotFound", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPResolver(srv.URL, time.Second).ResolveUserID(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("EmptyUserID", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := NewHTTPResolver(srv.URL, time.Second).ResolveUserID(ctx, "a@b.c")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("ServerError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewHTTPResolver(srv.URL, time.Second).ResolveUserID(ctx, "a@b.c")
		assert.ErrorIs(t, err, ErrLookupFailed)
	})
}
