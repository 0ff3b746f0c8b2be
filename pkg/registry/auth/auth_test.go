package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharfd/wharfd/pkg/errdefs"
	"github.com/wharfd/wharfd/pkg/registry/auth"
)

func TestHTTPResolver(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer good-token":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success": {"email": "alice@example.com"}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	resolver := auth.NewHTTPResolver(srv.URL, nil)

	username, err := resolver.Resolve(context.Background(), "good-token")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", username)

	_, err = resolver.Resolve(context.Background(), "bad-token")
	assert.ErrorIs(t, err, errdefs.ErrUnauthorized)

	_, err = resolver.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, errdefs.ErrUnauthorized)
}

func TestHTTPResolverEmptyIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"success": {}}`))
	}))
	defer srv.Close()

	resolver := auth.NewHTTPResolver(srv.URL, nil)
	_, err := resolver.Resolve(context.Background(), "token")
	assert.ErrorIs(t, err, errdefs.ErrUnauthorized)
}

func TestStatic(t *testing.T) {
	resolver := auth.Static{"token": "bob"}

	username, err := resolver.Resolve(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "bob", username)

	_, err = resolver.Resolve(context.Background(), "other")
	assert.ErrorIs(t, err, errdefs.ErrUnauthorized)
}
