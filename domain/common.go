package domain

import (
	"errors"
	"fmt"
)

const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusDisabled = "disabled"
)

var (
	MessageFailedBodyRequest    = "failed to parse request body"
	MessageFailedProcessRequest = "failed to process request"
	MessageFailedTokenInvalid   = "failed to token invalid"
	MessageUserNotAllowed       = "user not allowed"
	MessageUserIDRequired       = "userId is required"

	ErrUserIDRequired = errors.New("userId is required")
	ErrUserNotAllowed = errors.New("user not allowed")
	ErrTokenNotFound  = errors.New("failed to token not found")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
)

// UpstreamError marks a failure of an external collaborator (OCR, LLM, object storage, broker).
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}
