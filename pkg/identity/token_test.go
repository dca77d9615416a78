package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "uid-1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestTokenStale(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		token         string
		sessionExpiry time.Time
		want          bool
	}{
		{
			name:  "empty token is stale",
			token: "",
			want:  true,
		},
		{
			name:  "jwt expiring in an hour is fresh",
			token: signedToken(t, now.Add(time.Hour)),
			want:  false,
		},
		{
			name:  "jwt expiring within the skew is stale",
			token: signedToken(t, now.Add(30*time.Second)),
			want:  true,
		},
		{
			name:  "expired jwt is stale",
			token: signedToken(t, now.Add(-time.Minute)),
			want:  true,
		},
		{
			name:          "opaque token falls back to session expiry",
			token:         "not-a-jwt",
			sessionExpiry: now.Add(time.Hour),
			want:          false,
		},
		{
			name:          "opaque token with near session expiry is stale",
			token:         "not-a-jwt",
			sessionExpiry: now.Add(10 * time.Second),
			want:          true,
		},
		{
			name:  "opaque token without expiry never refreshes",
			token: "not-a-jwt",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokenStale(tt.token, tt.sessionExpiry))
		})
	}
}
