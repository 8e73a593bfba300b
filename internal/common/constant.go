// Package common contains shared constants and sentinel errors used across
// filevault components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on authorized requests.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the prefix of the Authorization header value.
	BearerScheme = "Bearer "

	// DetailField is the JSON key the backend uses for failure messages.
	DetailField = "detail"
)
