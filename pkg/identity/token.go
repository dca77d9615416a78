package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// staleSkew is how long before expiry a token is considered stale. It keeps
// in-flight requests from carrying a credential that expires mid-request.
const staleSkew = 2 * time.Minute

// tokenStale reports whether a bearer token should be refreshed. The exp
// claim wins when the token parses as a JWT; the session deadline is the
// fallback for opaque tokens. Signature verification is the server's job,
// not ours, so the claims are read unverified.
func tokenStale(token string, sessionExpiry time.Time) bool {
	if token == "" {
		return true
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return time.Until(exp.Time) < staleSkew
		}
	}

	if sessionExpiry.IsZero() {
		return false
	}
	return time.Until(sessionExpiry) < staleSkew
}
