package session

import (
	"github.com/golang-jwt/jwt/v5"
)

// Subject returns the "sub" claim of a JWT-shaped token without verifying
// it. Opaque tokens yield ("", false); this must never be used to decide
// whether a token is valid.
func Subject(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
