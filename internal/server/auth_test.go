package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestTokenService(t *testing.T) {
	ts := NewTokenService(testSecret, "", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		token, err := ts.GenerateToken("automation", []string{"bedroom"})
		require.NoError(t, err)

		claims, err := ts.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "automation", claims.Subject)
		assert.Equal(t, DefaultTokenIssuer, claims.Issuer)
		assert.NotNil(t, claims.ExpiresAt)
		assert.True(t, claims.Allows("bedroom"))
		assert.False(t, claims.Allows("kitchen"))
	})

	t.Run("no expiry", func(t *testing.T) {
		token, err := NewTokenService(testSecret, "", 0).GenerateToken("forever", nil)
		require.NoError(t, err)

		claims, err := ts.ValidateToken(token)
		require.NoError(t, err)
		assert.Nil(t, claims.ExpiresAt)
		assert.True(t, claims.Allows("anything"))
	})

	t.Run("expired", func(t *testing.T) {
		claims := &TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    DefaultTokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ts.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewTokenService(testSecret, "someone-else", time.Hour).GenerateToken("x", nil)
		require.NoError(t, err)

		_, err = ts.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &TokenClaims{}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ts.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestRequireToken(t *testing.T) {
	ts := NewTokenService(testSecret, "", time.Hour)

	var seen *TokenClaims
	handler := ts.RequireToken(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := ts.GenerateToken("automation", nil)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "automation", seen.Subject)

	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)
}
