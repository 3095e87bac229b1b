package hash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	Cost = bcrypt.MinCost
	m.Run()
}

func TestHash(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{name: "valid password", password: "SecurePass123!"},
		{name: "minimum length", password: "Pass123!"},
		{name: "too short", password: "short", wantErr: ErrPasswordTooShort},
		{name: "empty", password: "", wantErr: ErrPasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashed, err := Hash(tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, tt.password, hashed)
			assert.True(t, strings.HasPrefix(hashed, "$2a$"), "unexpected bcrypt prefix %q", hashed)
		})
	}
}

func TestHashIsSalted(t *testing.T) {
	first, err := Hash("SamePassword123!")
	require.NoError(t, err)
	second, err := Hash("SamePassword123!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestMatches(t *testing.T) {
	password := "MySecurePassword123!"
	hashed, err := Hash(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		hashed   string
		password string
		want     bool
		wantErr  bool
	}{
		{name: "correct password", hashed: hashed, password: password, want: true},
		{name: "wrong password", hashed: hashed, password: "WrongPassword"},
		{name: "case sensitive", hashed: hashed, password: strings.ToUpper(password)},
		{name: "garbage hash", hashed: "not-a-hash", password: password, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Matches(tt.hashed, tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
