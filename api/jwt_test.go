package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken(secret, 42)
	require.NoError(t, err)

	userID, err := ParseToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken([]byte("secret-a"), 42)
	require.NoError(t, err)

	_, err = ParseToken([]byte("secret-b"), token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken([]byte("secret"), "not.a.token")
	assert.Error(t, err)
}

func TestRequireAuth(t *testing.T) {
	s := &Server{jwtSecret: []byte("secret")}

	handler := s.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, int64(7), UserIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes through", func(t *testing.T) {
		token, err := GenerateToken([]byte("secret"), 7)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOptionalAuth(t *testing.T) {
	s := &Server{jwtSecret: []byte("secret")}

	t.Run("anonymous request passes with zero user", func(t *testing.T) {
		handler := s.optionalAuth(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, int64(0), UserIDFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/commitments/public", nil)
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("valid token attaches the user", func(t *testing.T) {
		handler := s.optionalAuth(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, int64(9), UserIDFromContext(r.Context()))
			w.WriteHeader(http.StatusOK)
		})

		token, err := GenerateToken([]byte("secret"), 9)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/commitments/public", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
