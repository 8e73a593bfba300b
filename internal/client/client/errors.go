package client

import (
	"errors"
	"fmt"
)

var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUploadRejected       = errors.New("upload rejected")
	ErrListFailed           = errors.New("list failed")
	ErrDeleteFailed         = errors.New("delete failed")
	ErrViewFailed           = errors.New("view failed")

	ErrNoToken     = errors.New("no session token")
	ErrUnavailable = errors.New("server unavailable")
)

// APIError is a classified failure of one API operation.
type APIError struct {
	// Kind is one of the sentinel errors above.
	Kind error
	// Status is the HTTP status, 0 when no response was received.
	Status int
	// Message is fit for the user: the server detail or a generic fallback.
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// UserMessage returns the human-readable part of err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
