package authapi

import (
	"errors"
	"fmt"
	"net/http"

	"seostrategy-go/pkg/api"
)

// Kind classifies an AuthError for the caller's recovery path.
type Kind string

const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindValidationFailed   Kind = "validation_failed"
	KindSessionExpired     Kind = "session_expired"
	KindUnknown            Kind = "unknown"
)

// AuthError is a failed account call. Message is suitable for display.
type AuthError struct {
	Kind    Kind
	Message string
	Status  int // 0 when no response was received
}

func (e *AuthError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.Status, e.Message)
}

// KindOf returns the AuthError kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsSessionExpired reports whether err means the session must be dropped
// and the user sent back to login.
func IsSessionExpired(err error) bool {
	return err != nil && KindOf(err) == KindSessionExpired
}

const (
	msgInvalidCredentials = "Invalid credentials"
	msgSessionExpired     = "Session expired. Please log in again."
	msgUnexpected         = "An unexpected error occurred."

	// ResetRequestedMessage is shown for every accepted reset request,
	// whether or not the address is registered.
	ResetRequestedMessage = "If the email is registered, a password reset link has been sent."
)

// failure maps a non-2xx response to an AuthError. The body's error field
// wins over fallback.
func failure(resp *api.Response, fallback string) *AuthError {
	kind := KindUnknown
	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		kind = KindValidationFailed
	}
	msg := api.ErrorMessage(resp.Body)
	if msg == "" {
		msg = fallback
	}
	return &AuthError{Kind: kind, Message: msg, Status: resp.StatusCode}
}

func validationError(msg string) *AuthError {
	return &AuthError{Kind: KindValidationFailed, Message: msg}
}
