// Package common defines shared constants and sentinel errors used across
// client and test backend. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
