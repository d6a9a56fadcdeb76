package rest

import (
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// accessClaims is the subset of access token claims the client relies on.
type accessClaims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// parseAccessToken reads claims without verifying the signature; the backend
// verifies tokens on every request, the client only needs to know who it is
// and when to refresh.
func parseAccessToken(token string) (*accessClaims, error) {
	parser := gojwt.NewParser()
	claims := gojwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	out := &accessClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	return out, nil
}
