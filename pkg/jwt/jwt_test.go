package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateToken(t *testing.T) {
	userID := "9f1c7c2e-user"
	secret := "validation-secret-key-32-chars"

	validToken, err := GenerateToken(userID, time.Hour, secret)
	require.NoError(t, err)
	expiredToken, err := GenerateToken(userID, -time.Hour, secret)
	require.NoError(t, err)
	refreshToken, err := GenerateRefreshToken(userID, time.Hour, secret)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr bool
	}{
		{name: "valid token", token: validToken, secret: secret},
		{name: "expired token", token: expiredToken, secret: secret, wantErr: true},
		{name: "wrong secret", token: validToken, secret: "wrong-secret", wantErr: true},
		{name: "refresh token used as access token", token: refreshToken, secret: secret, wantErr: true},
		{name: "invalid token format", token: "invalid.token.format", secret: secret, wantErr: true},
		{name: "empty token", token: "", secret: secret, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.secret)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, TokenTypeAccess, claims.TokenType)
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	secret := "refresh-secret-key"

	refreshToken, err := GenerateRefreshToken("user-refresh", 7*24*time.Hour, secret)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(refreshToken, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-refresh", claims.UserID)

	accessToken, err := GenerateToken("user-refresh", time.Minute, secret)
	require.NoError(t, err)

	_, err = ValidateRefreshToken(accessToken, secret)
	assert.True(t, errors.Is(err, ErrWrongTokenType))
}

func TestClaimsTimestamps(t *testing.T) {
	expiration := time.Hour

	before := time.Now().Add(-time.Second)
	token, err := GenerateToken("timestamp-user", expiration, "timestamp-secret")
	require.NoError(t, err)
	after := time.Now().Add(time.Second)

	claims, err := ValidateToken(token, "timestamp-secret")
	require.NoError(t, err)

	assert.WithinRange(t, claims.IssuedAt.Time, before, after)
	assert.WithinRange(t, claims.NotBefore.Time, before, after)
	assert.WithinRange(t, claims.ExpiresAt.Time, before.Add(expiration), after.Add(expiration))
}

func BenchmarkValidateToken(b *testing.B) {
	token, _ := GenerateToken("benchmark-user", 15*time.Minute, "benchmark-secret-key")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ValidateToken(token, "benchmark-secret-key"); err != nil {
			b.Fatalf("ValidateToken() error = %v", err)
		}
	}
}
