package rpc

import (
	"errors"
	"fmt"
	"net/http"

	"storefront/internal/domain"
)

var (
	// ErrInvalidCredentials is returned by IssueToken for an unknown username or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when the backend no longer accepts the bearer
	// token. It matches domain.ErrUnauthorized.
	ErrInvalidToken = fmt.Errorf("invalid token: %w", domain.ErrUnauthorized)
)

// Error is a non-2xx backend response. It unwraps to the domain error the
// status and code describe, so callers classify it with errors.Is/As.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	switch e.Code {
	case "invalid_customer_account_credentials":
		return ErrInvalidCredentials
	case "invalid_token":
		return ErrInvalidToken
	case "EmptyCart":
		return domain.ErrEmptyCart
	case "InvalidField":
		return &domain.ValidationError{Field: e.Field, Message: e.Message}
	}
	switch e.StatusCode {
	case http.StatusBadRequest:
		return &domain.ValidationError{Field: e.Field, Message: e.Message}
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrAlreadyExists
	}
	return nil
}

// errorBody is the backend's error envelope.
type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Errors     []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (b errorBody) toError(status int) *Error {
	e := &Error{StatusCode: status, Message: b.Message}
	if len(b.Errors) > 0 {
		e.Code = b.Errors[0].Code
		e.Field = b.Errors[0].Field
		if b.Errors[0].Message != "" {
			e.Message = b.Errors[0].Message
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
