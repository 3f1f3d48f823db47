// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

const DefaultTokenIssuer = "samtv"

// TokenService issues and checks the bearer tokens accepted by the REST bridge
type TokenService struct {
	secretKey   []byte
	issuer      string
	tokenExpiry time.Duration
}

// TokenClaims represents the claims in a bridge token
type TokenClaims struct {
	jwt.RegisteredClaims
	// TVs limits the token to these TV IDs; empty allows every TV
	TVs []string `json:"tvs,omitempty"`
}

type claimsKey struct{}

// NewTokenService creates a token service signing with secretKey.
// A zero expiry issues tokens that never expire.
func NewTokenService(secretKey, issuer string, expiry time.Duration) *TokenService {
	if issuer == "" {
		issuer = DefaultTokenIssuer
	}
	return &TokenService{
		secretKey:   []byte(secretKey),
		issuer:      issuer,
		tokenExpiry: expiry,
	}
}

// GenerateToken creates a token for subject, optionally limited to tvs
func (ts *TokenService) GenerateToken(subject string, tvs []string) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
		TVs: tvs,
	}
	if ts.tokenExpiry > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ts.tokenExpiry))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ts.secretKey)
}

// ValidateToken validates a token and returns its claims
func (ts *TokenService) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secretKey, nil
	}, jwt.WithIssuer(ts.issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// Allows reports whether the token may control tvID
func (c *TokenClaims) Allows(tvID string) bool {
	return len(c.TVs) == 0 || slices.Contains(c.TVs, tvID)
}

// RequireToken is a middleware that requires a valid bearer token. Routes with
// a tv_id variable are also checked against the token's TV list.
func (ts *TokenService) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		const bearerPrefix = "Bearer "
		if !strings.HasPrefix(authHeader, bearerPrefix) {
			http.Error(w, "Authorization header must start with 'Bearer '", http.StatusUnauthorized)
			return
		}

		claims, err := ts.ValidateToken(strings.TrimPrefix(authHeader, bearerPrefix))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if tvID, ok := mux.Vars(r)["tv_id"]; ok && !claims.Allows(tvID) {
			http.Error(w, fmt.Sprintf("Token does not allow tv '%s'", tvID), http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
	})
}

// ClaimsFromContext extracts the token claims from the request context
func ClaimsFromContext(ctx context.Context) (*TokenClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*TokenClaims)
	return claims, ok
}
